package httpinterface

import (
	"encoding/hex"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/b3pay/b3walletd/internal/core/application"
	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/pkg/stats"
)

type handler struct {
	wallet   application.WalletService
	requests application.RequestService
	snapshot application.SnapshotService
	bridge   application.BridgeService
	metrics  *stats.Metrics
}

func (h *handler) listAccounts(c *fiber.Ctx) error {
	accounts, err := h.wallet.ListAccounts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"accounts": accounts})
}

func (h *handler) getAccount(c *fiber.Ctx) error {
	account, err := h.wallet.GetAccount(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(account)
}

func (h *handler) restoreAccount(c *fiber.Ctx) error {
	var req restoreAccountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	account, err := h.wallet.RestoreAccount(
		c.UserContext(), req.Environment, req.Nonce,
	)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *handler) getPublicKey(c *fiber.Ctx) error {
	key, err := h.wallet.EcdsaPublicKey(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"public_key": hex.EncodeToString(key)})
}

func (h *handler) getAddresses(c *fiber.Ctx) error {
	addresses, err := h.wallet.GetAddresses(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"addresses": addresses})
}

func (h *handler) getBalances(c *fiber.Ctx) error {
	balances, err := h.wallet.GetBalances(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"balances": balances})
}

func (h *handler) getBalance(c *fiber.Ctx) error {
	kind, err := parseChainParam(c)
	if err != nil {
		return err
	}
	balance, err := h.wallet.GetBalance(c.UserContext(), c.Params("id"), kind)
	if err != nil {
		return err
	}
	return c.JSON(balance)
}

func (h *handler) getUtxos(c *fiber.Ctx) error {
	network, err := domain.ParseBitcoinNetwork(c.Query("network", "mainnet"))
	if err != nil {
		return err
	}
	utxos, err := h.wallet.GetUtxos(c.UserContext(), c.Params("id"), network)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"utxos": toUtxoResponses(utxos)})
}

func (h *handler) getFeeRate(c *fiber.Ctx) error {
	kind, err := parseChainParam(c)
	if err != nil {
		return err
	}
	rate, err := h.wallet.GetFeeRate(c.UserContext(), kind)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"chain": kind, "fee_rate": rate})
}

func (h *handler) addAccountMetadata(c *fiber.Ctx) error {
	var req metadataRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.wallet.AddAccountMetadata(
		c.UserContext(), c.Params("id"), req.Key, req.Value,
	); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) removeAccountMetadata(c *fiber.Ctx) error {
	if err := h.wallet.RemoveAccountMetadata(
		c.UserContext(), c.Params("id"), c.Params("key"),
	); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) signMessage(c *fiber.Ctx) error {
	var req signMessageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	digest, err := parseHex("digest", req.Digest)
	if err != nil {
		return err
	}
	sig, err := h.wallet.SignMessage(c.UserContext(), application.SignMessageArgs{
		AccountID: c.Params("id"),
		Digest:    digest,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"signature": hex.EncodeToString(sig)})
}

func (h *handler) signEvmTransaction(c *fiber.Ctx) error {
	var req signEvmTransactionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	rawTx, err := parseHex("raw_tx", req.RawTx)
	if err != nil {
		return err
	}
	signed, err := h.wallet.SignEvmTransaction(
		c.UserContext(), application.SignEvmTransactionArgs{
			AccountID: c.Params("id"),
			ChainID:   req.ChainID,
			RawTx:     rawTx,
		},
	)
	if err != nil {
		return err
	}
	return c.JSON(signedTransactionResponse{
		RawTx: hex.EncodeToString(signed.Raw),
		Hash:  signed.Hash,
	})
}

func (h *handler) getSettings(c *fiber.Ctx) error {
	settings, err := h.wallet.GetSettings(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(settings)
}

func (h *handler) reset(c *fiber.Ctx) error {
	if err := h.wallet.Reset(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) listPending(c *fiber.Ctx) error {
	bridge, err := h.bridgeService()
	if err != nil {
		return err
	}
	pending, err := bridge.ListPending(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"pending": pending})
}

func (h *handler) bridgeReceive(c *fiber.Ctx) error {
	bridge, err := h.bridgeService()
	if err != nil {
		return err
	}
	var req bridgeReceiveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	handle, err := bridge.InitiateReceive(c.UserContext(), application.BridgeInArgs{
		AccountID: c.Params("id"),
		Chain:     req.Chain,
		Amount:    req.Amount,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"handle": handle})
}

func (h *handler) bridgeSend(c *fiber.Ctx) error {
	bridge, err := h.bridgeService()
	if err != nil {
		return err
	}
	var req bridgeSendRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	handle, err := bridge.InitiateSend(c.UserContext(), application.BridgeOutArgs{
		AccountID:   c.Params("id"),
		Chain:       req.Chain,
		Destination: req.Destination,
		Amount:      req.Amount,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"handle": handle})
}

func (h *handler) bridgeSettle(c *fiber.Ctx) error {
	bridge, err := h.bridgeService()
	if err != nil {
		return err
	}
	var req bridgeSettleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var settled []string
	switch req.Direction {
	case "receive":
		settled, err = bridge.SettleReceive(c.UserContext(), c.Params("id"), req.Chain)
	case "send":
		settled, err = bridge.SettleSend(c.UserContext(), c.Params("id"), req.Chain)
	default:
		err = fmt.Errorf(
			"%w: direction must be either receive or send", application.ErrInvalidArgument,
		)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"settled": settled})
}

func (h *handler) bridgeClear(c *fiber.Ctx) error {
	bridge, err := h.bridgeService()
	if err != nil {
		return err
	}
	kind, err := parseChainParam(c)
	if err != nil {
		return err
	}
	accountID, handle := c.Params("id"), c.Params("handle")

	switch c.Params("direction") {
	case "receive":
		err = bridge.ClearPendingReceive(c.UserContext(), accountID, kind, handle)
	case "send":
		err = bridge.ClearPendingSend(c.UserContext(), accountID, kind, handle)
	default:
		err = fmt.Errorf(
			"%w: direction must be either receive or send", application.ErrInvalidArgument,
		)
	}
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) bridgeService() (application.BridgeService, error) {
	if h.bridge == nil {
		return nil, fmt.Errorf(
			"%w: bridge oracle not configured", application.ErrServiceUnavailable,
		)
	}
	return h.bridge, nil
}

func (h *handler) submitRequest(c *fiber.Ctx) error {
	var req submitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	role := domain.RoleNone
	if req.Role != "" {
		r, err := domain.ParseRole(req.Role)
		if err != nil {
			return err
		}
		role = r
	}

	id, err := h.requests.Submit(
		c.UserContext(), callerOf(c), req.Operation, role, req.Deadline,
	)
	if err != nil {
		return err
	}
	h.metrics.RequestSubmitted(req.Operation.MethodName())
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *handler) executeRequest(c *fiber.Ctx) error {
	id, err := parseRequestID(c)
	if err != nil {
		return err
	}
	req, err := h.requests.Execute(c.UserContext(), callerOf(c), id)
	if req == nil {
		return err
	}
	h.metrics.RequestExecuted(req.Operation.MethodName(), req.Status.String())
	return c.JSON(req)
}

func (h *handler) getRequest(c *fiber.Ctx) error {
	id, err := parseRequestID(c)
	if err != nil {
		return err
	}
	req, err := h.requests.GetRequest(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(req)
}

func (h *handler) listRequests(c *fiber.Ctx) error {
	var (
		requests []*domain.Request
		err      error
	)
	switch c.Query("status", "pending") {
	case "pending":
		requests, err = h.requests.ListPending(c.UserContext())
	case "processed":
		requests, err = h.requests.ListProcessed(c.UserContext())
	default:
		err = fmt.Errorf(
			"%w: status must be either pending or processed",
			application.ErrInvalidArgument,
		)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"requests": requests})
}

func (h *handler) saveSnapshot(c *fiber.Ctx) error {
	data, err := h.snapshot.Save(c.UserContext())
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

func (h *handler) restoreSnapshot(c *fiber.Ctx) error {
	if err := h.snapshot.Restore(c.UserContext(), c.Body()); err != nil {
		return err
	}
	if _, err := h.requests.RecoverInterrupted(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
