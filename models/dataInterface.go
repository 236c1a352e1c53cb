package models

// Identifier is implemented by rows that dataloaders batch by primary key.
type Identifier interface {
	GetId() int
}

func (c Customer) GetId() int {
	return c.ID
}

func (s SalesPerson) GetId() int {
	return s.ID
}

func (p Product) GetId() int {
	return p.ID
}
