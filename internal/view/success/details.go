package success

import (
	"encoding/json"

	"github.com/nattapatNtp/furniture-Frontend/internal/view/checkout"
)

// parseDeliveryDetails decodes the address string the backend stored with
// the order. A malformed payload just means no address block on the receipt.
func parseDeliveryDetails(details string) *checkout.DeliveryAddress {
	if details == "" {
		return nil
	}
	var addr checkout.DeliveryAddress
	if err := json.Unmarshal([]byte(details), &addr); err != nil {
		return nil
	}
	return &addr
}
