package domain

// PendingTransfers tracks the handles of bridge transfers accepted by the
// bridge oracle and not yet confirmed. Both lists keep insertion order and
// never contain duplicates.
type PendingTransfers struct {
	Receive []string `json:"receive"`
	Send    []string `json:"send"`
}

// AddReceive records an inbound transfer. Returns false if already pending.
func (p *PendingTransfers) AddReceive(handle string) (bool, error) {
	return addHandle(&p.Receive, handle)
}

// AddSend records an outbound transfer. Returns false if already pending.
func (p *PendingTransfers) AddSend(handle string) (bool, error) {
	return addHandle(&p.Send, handle)
}

// RemoveReceive removes an inbound handle, returning whether it was pending.
func (p *PendingTransfers) RemoveReceive(handle string) bool {
	return removeHandle(&p.Receive, handle)
}

// RemoveSend removes an outbound handle, returning whether it was pending.
func (p *PendingTransfers) RemoveSend(handle string) bool {
	return removeHandle(&p.Send, handle)
}

// SettleReceive removes the confirmed inbound handles that are still pending
// and returns them in pending order.
func (p *PendingTransfers) SettleReceive(confirmed []string) []string {
	return settleHandles(&p.Receive, confirmed)
}

// SettleSend is the outbound counterpart of SettleReceive.
func (p *PendingTransfers) SettleSend(confirmed []string) []string {
	return settleHandles(&p.Send, confirmed)
}

// IsEmpty ...
func (p PendingTransfers) IsEmpty() bool {
	return len(p.Receive) == 0 && len(p.Send) == 0
}

// Clone ...
func (p PendingTransfers) Clone() PendingTransfers {
	return PendingTransfers{
		Receive: append([]string{}, p.Receive...),
		Send:    append([]string{}, p.Send...),
	}
}

func addHandle(list *[]string, handle string) (bool, error) {
	if handle == "" {
		return false, ErrEmptyPendingHandle
	}
	for _, h := range *list {
		if h == handle {
			return false, nil
		}
	}
	*list = append(*list, handle)
	return true, nil
}

func removeHandle(list *[]string, handle string) bool {
	for i, h := range *list {
		if h == handle {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

func settleHandles(list *[]string, confirmed []string) []string {
	if len(confirmed) <= 0 {
		return nil
	}
	done := make(map[string]struct{}, len(confirmed))
	for _, h := range confirmed {
		done[h] = struct{}{}
	}

	removed := make([]string, 0)
	kept := make([]string, 0, len(*list))
	for _, h := range *list {
		if _, ok := done[h]; ok {
			removed = append(removed, h)
			continue
		}
		kept = append(kept, h)
	}
	*list = kept
	return removed
}
