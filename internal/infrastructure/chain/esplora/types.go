package esplora

import "github.com/b3pay/b3walletd/internal/core/ports"

type addressStats struct {
	FundedTxoSum uint64 `json:"funded_txo_sum"`
	SpentTxoSum  uint64 `json:"spent_txo_sum"`
}

type addressInfo struct {
	Address      string       `json:"address"`
	ChainStats   addressStats `json:"chain_stats"`
	MempoolStats addressStats `json:"mempool_stats"`
}

// balance returns the confirmed balance plus the unconfirmed delta of the
// mempool.
func (a addressInfo) balance() int64 {
	confirmed := int64(a.ChainStats.FundedTxoSum - a.ChainStats.SpentTxoSum)
	mempool := int64(a.MempoolStats.FundedTxoSum) - int64(a.MempoolStats.SpentTxoSum)
	return confirmed + mempool
}

// utxo implements ports.Utxo interface
type utxo struct {
	UTxid   string     `json:"txid"`
	UIndex  uint32     `json:"vout"`
	UValue  uint64     `json:"value"`
	UStatus utxoStatus `json:"status"`
}

func (u utxo) GetTxid() string {
	return u.UTxid
}

func (u utxo) GetIndex() uint32 {
	return u.UIndex
}

func (u utxo) GetValue() uint64 {
	return u.UValue
}

func (u utxo) GetStatus() ports.UtxoStatus {
	return u.UStatus
}

// utxoStatus implements ports.UtxoStatus interface
type utxoStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint64 `json:"block_height"`
	BlockHash   string `json:"block_hash"`
}

func (s utxoStatus) IsConfirmed() bool {
	return s.Confirmed
}

func (s utxoStatus) GetBlockHeight() uint64 {
	return s.BlockHeight
}

func (s utxoStatus) GetBlockHash() string {
	return s.BlockHash
}
