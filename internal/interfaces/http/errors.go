package httpinterface

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/b3pay/b3walletd/internal/core/application"
	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
	"github.com/b3pay/b3walletd/pkg/txbuilder"
)

var errorStatuses = []struct {
	status int
	errs   []error
}{
	{fiber.StatusForbidden, []error{domain.ErrForbidden}},
	{fiber.StatusGone, []error{domain.ErrRequestExpired}},
	{fiber.StatusBadGateway, []error{
		application.ErrSignerFailure,
		application.ErrBridgeFailure,
		application.ErrChainBackendFailure,
	}},
	{fiber.StatusServiceUnavailable, []error{application.ErrServiceUnavailable}},
	{fiber.StatusNotFound, []error{
		domain.ErrAccountNotFound,
		domain.ErrRequestNotFound,
		domain.ErrChainNotFound,
		ports.ErrBackendNotFound,
	}},
	{fiber.StatusConflict, []error{
		domain.ErrAccountAlreadyExists,
		domain.ErrRequestAlreadyExecuted,
		domain.ErrRequestInProgress,
		domain.ErrPublicKeyAlreadySet,
		domain.ErrCannotRemoveDefaultAccount,
	}},
	{fiber.StatusPreconditionFailed, []error{
		domain.ErrMissingPublicKey,
		domain.ErrBridgeNotInitialized,
		domain.ErrChainNotBound,
		domain.ErrChainIDNotInitialized,
		domain.ErrWalletNotInitialized,
		ports.ErrUtxosNotSupported,
	}},
	{fiber.StatusBadRequest, []error{
		application.ErrInvalidArgument,
		application.ErrInvalidSnapshot,
		domain.ErrUnknownEnvironment,
		domain.ErrInvalidSubaccount,
		domain.ErrInvalidAddress,
		domain.ErrInvalidKeyLength,
		domain.ErrInvalidPublicKey,
		domain.ErrUnknownChainKind,
		domain.ErrEmptyPendingHandle,
		domain.ErrInvalidAccountName,
		domain.ErrInvalidOwner,
		domain.ErrInvalidDeadline,
		domain.ErrInvalidOperation,
		domain.ErrInvalidRole,
		domain.ErrInvalidMetadataKey,
		txbuilder.ErrInvalidMessageLength,
		txbuilder.ErrInvalidSignature,
		txbuilder.ErrInvalidPublicKey,
		txbuilder.ErrChainIDMismatch,
		txbuilder.ErrInvalidTransaction,
		txbuilder.ErrInvalidSender,
		txbuilder.ErrInvalidAmount,
	}},
}

func statusOf(err error) int {
	var fErr *fiber.Error
	if errors.As(err, &fErr) {
		return fErr.Code
	}
	for _, s := range errorStatuses {
		for _, e := range s.errs {
			if errors.Is(err, e) {
				return s.status
			}
		}
	}
	return fiber.StatusInternalServerError
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Path()).Error("internal error")
		msg = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
