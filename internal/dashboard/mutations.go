package dashboard

import (
	"context"
	"slices"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
)

// --- Bills ---

// CreateBill validates bill, creates it upstream and puts it at the head of
// the bill list. No cache entry is created.
func (d *Dashboard) CreateBill(ctx context.Context, bill billing.Bill) (billing.Bill, error) {
	if err := billing.ValidateBill(bill); err != nil {
		d.fail("Invalid bill", err)
		return billing.Bill{}, err
	}

	created, err := d.gw.CreateBill(ctx, bill)
	if err != nil {
		d.fail("Failed to create bill", err)
		return billing.Bill{}, err
	}
	if created.BillNo == "" {
		created = bill
	}

	d.mu.Lock()
	d.bills = slices.Insert(d.bills, 0, created)
	pub := d.changedLocked()
	d.mu.Unlock()

	d.republish(pub)
	d.succeed("Bill created successfully")
	return created, nil
}

// UpdateBill replaces a loaded bill. If upstream renamed the bill, the cache
// entry under the old number is dropped.
func (d *Dashboard) UpdateBill(ctx context.Context, billNo string, bill billing.Bill) (billing.Bill, error) {
	if _, err := d.Bill(billNo); err != nil {
		return billing.Bill{}, err
	}
	if bill.BillNo == "" {
		bill.BillNo = billNo
	}
	if err := billing.ValidateBill(bill); err != nil {
		d.fail("Invalid bill", err)
		return billing.Bill{}, err
	}

	updated, err := d.gw.UpdateBill(ctx, billNo, bill)
	if err != nil {
		d.fail("Failed to update bill", err)
		return billing.Bill{}, err
	}
	if updated.BillNo == "" {
		updated = bill
	}

	d.mu.Lock()
	if i := indexOfBill(d.bills, billNo); i >= 0 {
		d.bills[i] = updated
	}
	if updated.BillNo != billNo {
		d.cache.Invalidate(billNo)
	}
	if d.current != nil && d.current.BillNo == billNo {
		cur := updated
		d.current = &cur
	}
	pub := d.changedLocked()
	d.mu.Unlock()

	d.republish(pub)
	d.succeed("Bill updated successfully")
	return updated, nil
}

// DeleteBill asks c to confirm, deletes the bill upstream, removes it from
// the bill list and invalidates its cache entry. If the bill was selected,
// the selection is cleared. A bill that is not loaded yields
// ErrBillNotFound and leaves the cache untouched.
func (d *Dashboard) DeleteBill(ctx context.Context, billNo string, c Confirmer) error {
	if _, err := d.Bill(billNo); err != nil {
		return err
	}

	if err := c.Confirm(ctx, Prompt{
		Action:  "delete_bill",
		Target:  billNo,
		Message: "Are you sure you want to delete this bill?",
	}); err != nil {
		return err
	}

	if err := d.gw.DeleteBill(ctx, billNo); err != nil {
		d.fail("Failed to delete bill", err)
		return err
	}

	d.mu.Lock()
	if i := indexOfBill(d.bills, billNo); i >= 0 {
		d.bills = slices.Delete(d.bills, i, i+1)
	}
	d.cache.Invalidate(billNo)
	if d.current != nil && d.current.BillNo == billNo {
		d.clearSelectionLocked()
	}
	pub := d.changedLocked()
	d.mu.Unlock()

	d.republish(pub)
	d.succeed("Bill deleted successfully")
	return nil
}

// --- Bill details ---

// CreateBillDetail adds a line item to billNo. When billNo is not the
// selected bill it is viewed first, so the working set is complete before
// it is written back to the cache.
func (d *Dashboard) CreateBillDetail(ctx context.Context, billNo string, detail billing.BillDetail) (billing.BillDetail, error) {
	if err := billing.ValidateDetail(detail); err != nil {
		d.fail("Invalid bill detail", err)
		return billing.BillDetail{}, err
	}
	if sel, ok := d.CurrentSelection(); !ok || sel.Bill.BillNo != billNo {
		if _, err := d.ViewBillDetails(ctx, billNo); err != nil {
			return billing.BillDetail{}, err
		}
	}

	detail.BillNo = billNo
	created, err := d.gw.CreateBillDetail(ctx, billNo, detail.WithLineTotal())
	if err != nil {
		d.fail("Failed to create bill detail", err)
		return billing.BillDetail{}, err
	}
	if created.BillNo == "" {
		created.BillNo = billNo
	}

	d.writeDetails(billNo, func(details []billing.BillDetail) []billing.BillDetail {
		return append(details, created)
	})
	d.succeed("Bill detail created successfully")
	return created, nil
}

// UpdateBillDetail replaces a line item of the selected bill.
func (d *Dashboard) UpdateBillDetail(ctx context.Context, id string, detail billing.BillDetail) (billing.BillDetail, error) {
	billNo, err := d.selectedDetail(id)
	if err != nil {
		return billing.BillDetail{}, err
	}
	if err := billing.ValidateDetail(detail); err != nil {
		d.fail("Invalid bill detail", err)
		return billing.BillDetail{}, err
	}

	detail.ID = id
	detail.BillNo = billNo
	updated, err := d.gw.UpdateBillDetail(ctx, id, detail.WithLineTotal())
	if err != nil {
		d.fail("Failed to update bill detail", err)
		return billing.BillDetail{}, err
	}
	if updated.ID == "" {
		updated.ID = id
	}
	if updated.BillNo == "" {
		updated.BillNo = billNo
	}

	d.writeDetails(billNo, func(details []billing.BillDetail) []billing.BillDetail {
		if i := indexOfDetail(details, id); i >= 0 {
			details[i] = updated
		}
		return details
	})
	d.succeed("Bill detail updated successfully")
	return updated, nil
}

// DeleteBillDetail asks c to confirm, then removes a line item of the
// selected bill.
func (d *Dashboard) DeleteBillDetail(ctx context.Context, id string, c Confirmer) error {
	billNo, err := d.selectedDetail(id)
	if err != nil {
		return err
	}

	if err := c.Confirm(ctx, Prompt{
		Action:  "delete_bill_detail",
		Target:  id,
		Message: "Are you sure you want to delete this item?",
	}); err != nil {
		return err
	}

	if err := d.gw.DeleteBillDetail(ctx, id); err != nil {
		d.fail("Failed to delete bill detail", err)
		return err
	}

	d.writeDetails(billNo, func(details []billing.BillDetail) []billing.BillDetail {
		if i := indexOfDetail(details, id); i >= 0 {
			return slices.Delete(details, i, i+1)
		}
		return details
	})
	d.succeed("Bill detail deleted successfully")
	return nil
}

// selectedDetail returns the selected bill's number if it owns detail id.
func (d *Dashboard) selectedDetail(id string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.current == nil {
		return "", ErrNoBillSelected
	}
	if indexOfDetail(d.currentDetails, id) < 0 {
		return "", ErrDetailNotFound
	}
	return d.current.BillNo, nil
}

// writeDetails applies edit to billNo's details in both the working set and
// the cache. If the selection moved on while the request was in flight,
// only the cache entry (when present) is edited.
func (d *Dashboard) writeDetails(billNo string, edit func([]billing.BillDetail) []billing.BillDetail) {
	d.mu.Lock()
	switch {
	case d.current != nil && d.current.BillNo == billNo:
		d.currentDetails = edit(slices.Clone(d.currentDetails))
		d.cache.Set(billNo, d.currentDetails)
	default:
		if cached, ok := d.cache.Get(billNo); ok {
			d.cache.Set(billNo, edit(cached))
		}
	}
	pub := d.changedLocked()
	d.mu.Unlock()

	d.republish(pub)
}

func indexOfDetail(details []billing.BillDetail, id string) int {
	return slices.IndexFunc(details, func(d billing.BillDetail) bool { return d.ID == id })
}
