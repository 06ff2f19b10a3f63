package entities

// Supplier represents a vendor, including its subcontracting defaults
// when it can receive outsourced production
type Supplier struct {
	Name               string
	ReceivingWarehouse string     // WIP warehouse raw materials are transferred to
	SubcontractItems   []ItemCode // items this supplier can produce under subcontract
}

// Subcontracts reports whether the supplier lists the item for
// subcontracted work
func (s *Supplier) Subcontracts(item ItemCode) bool {
	for _, code := range s.SubcontractItems {
		if code == item {
			return true
		}
	}
	return false
}
