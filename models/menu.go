package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is immutable once created, except for Available.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"column:nome;type:varchar(100);not null" json:"name"`
	Description string          `gorm:"column:descricao;type:text" json:"description"`
	Price       decimal.Decimal `gorm:"column:preco;type:decimal(10,2);not null" json:"price"`
	Category    Category        `gorm:"column:categoria;type:varchar(50);not null;index" json:"category"`
	Available   bool            `gorm:"column:disponivel;not null" json:"available"`
	ImageURL    *string         `gorm:"column:imagem_url;type:varchar(200)" json:"image_url"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

type MenuGroup struct {
	Category Category
	Items    []MenuItem
}

// Menu is the catalog grouped by category. Groups keep the order in which
// their first item was added.
type Menu struct {
	Groups []MenuGroup
}

func (m *Menu) Add(item MenuItem) {
	for i := range m.Groups {
		if m.Groups[i].Category == item.Category {
			m.Groups[i].Items = append(m.Groups[i].Items, item)
			return
		}
	}
	m.Groups = append(m.Groups, MenuGroup{Category: item.Category, Items: []MenuItem{item}})
}

func (m *Menu) Items(c Category) []MenuItem {
	for _, g := range m.Groups {
		if g.Category == c {
			return g.Items
		}
	}
	return nil
}

func (m *Menu) Categories() []Category {
	out := make([]Category, 0, len(m.Groups))
	for _, g := range m.Groups {
		out = append(out, g.Category)
	}
	return out
}

// MarshalJSON encodes the menu as an object keyed by category, preserving
// group order (encoding/json would sort map keys).
func (m Menu) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range m.Groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(g.Category))
		if err != nil {
			return nil, err
		}
		items, err := json.Marshal(g.Items)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(items)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
