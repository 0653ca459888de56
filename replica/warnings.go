package replica

import "github.com/opchan/core/internal/errs"

// WarningListener is notified of a warning-grade, non-rejecting failure
// (spec.md §7: StorageFailure) encountered while applying a message.
type WarningListener func(w *errs.Warning)

// OnWarning registers a listener for warning-grade failures, mirroring
// OnPendingChange's registration shape. It returns an unsubscribe handle.
func (r *Replica) OnWarning(fn WarningListener) (unsubscribe func()) {
	r.warningListenersMu.Lock()
	defer r.warningListenersMu.Unlock()
	r.warningListeners = append(r.warningListeners, fn)
	idx := len(r.warningListeners) - 1
	return func() {
		r.warningListenersMu.Lock()
		defer r.warningListenersMu.Unlock()
		if idx < len(r.warningListeners) {
			r.warningListeners[idx] = nil
		}
	}
}

func (r *Replica) notifyWarning(w *errs.Warning) {
	r.warningListenersMu.Lock()
	listeners := append([]WarningListener(nil), r.warningListeners...)
	r.warningListenersMu.Unlock()
	for _, fn := range listeners {
		if fn != nil {
			fn(w)
		}
	}
}
