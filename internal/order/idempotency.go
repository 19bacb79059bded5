package order

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"storefront-be/internal/cart"
)

// idempotencyKey identifies one checkout attempt: the same user paying the
// same cart document, contents and payment method always yields the same key.
func idempotencyKey(userID, paymentMethod string, snap *cart.Snapshot) string {
	lines := make([]string, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, fmt.Sprintf("%s|%s|%s|%d|%.2f",
			l.Product.ID.Hex(), l.Size, l.Color, l.Quantity, l.UnitPrice))
	}
	sort.Strings(lines)

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s", userID, snap.CartID.Hex(), paymentMethod)
	for _, l := range lines {
		fmt.Fprintf(h, "\x00%s", l)
	}
	return hex.EncodeToString(h.Sum(nil))
}
