package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// TableStatus is the session state of a physical table.
type TableStatus string

const (
	TableFree            TableStatus = "free"
	TableOpen            TableStatus = "open"
	TableAwaitingPayment TableStatus = "awaiting_payment"
)

// OrderStatus advances open -> closed (bill requested) -> paid.
type OrderStatus string

const (
	OrderOpen   OrderStatus = "open"
	OrderClosed OrderStatus = "closed"
	OrderPaid   OrderStatus = "paid"
)

// Category groups menu items on the printed and digital menu.
type Category string

const (
	CategoryStarter  Category = "starter"
	CategoryMain     Category = "main"
	CategoryBeverage Category = "beverage"
	CategoryDessert  Category = "dessert"
)

// ActiveOrderStatuses are the non-terminal order states. A table has at most
// one order in one of these.
var ActiveOrderStatuses = []OrderStatus{OrderOpen, OrderClosed}

func ParseTableStatus(s string) (TableStatus, error) {
	switch v := TableStatus(s); v {
	case TableFree, TableOpen, TableAwaitingPayment:
		return v, nil
	}
	return "", fmt.Errorf("unknown table status %q", s)
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch v := OrderStatus(s); v {
	case OrderOpen, OrderClosed, OrderPaid:
		return v, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

func ParseCategory(s string) (Category, error) {
	switch v := Category(s); v {
	case CategoryStarter, CategoryMain, CategoryBeverage, CategoryDessert:
		return v, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func (s TableStatus) Value() (driver.Value, error) {
	if _, err := ParseTableStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

func (s *TableStatus) Scan(src any) error {
	return scanEnum(src, ParseTableStatus, s)
}

func (s *TableStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, ParseTableStatus, s)
}

func (s OrderStatus) Value() (driver.Value, error) {
	if _, err := ParseOrderStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

func (s *OrderStatus) Scan(src any) error {
	return scanEnum(src, ParseOrderStatus, s)
}

func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, ParseOrderStatus, s)
}

func (c Category) Value() (driver.Value, error) {
	if _, err := ParseCategory(string(c)); err != nil {
		return nil, err
	}
	return string(c), nil
}

func (c *Category) Scan(src any) error {
	return scanEnum(src, ParseCategory, c)
}

func (c *Category) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, ParseCategory, c)
}

func scanEnum[T ~string](src any, parse func(string) (T, error), dst *T) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
	parsed, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

func unmarshalEnum[T ~string](b []byte, parse func(string) (T, error), dst *T) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}
