package dashboard

import "errors"

var (
	// ErrBillNotFound means the bill is not in the loaded bill list.
	ErrBillNotFound = errors.New("bill not found")
	// ErrDetailNotFound means the detail is not in the selected bill's details.
	ErrDetailNotFound = errors.New("bill detail not found")
	// ErrNoBillSelected means a detail operation ran with no bill selected.
	ErrNoBillSelected = errors.New("no bill selected")
	// ErrNotConfirmed means the operator declined a confirmation prompt.
	ErrNotConfirmed = errors.New("action not confirmed")
	// ErrNothingToExport means the export filter matched no bills.
	ErrNothingToExport = errors.New("no bills found in the selected date range")
)
