package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/yeremiapane/qr-restaurant/services"
	"github.com/yeremiapane/qr-restaurant/utils"
)

// Board prints the floor status, one row per table.
func Board(w io.Writer, views []services.TableView) error {
	table := tablewriter.NewWriter(w)
	table.Header("Table", "Status", "Occupant", "Order", "Order status", "Lines", "Total")

	for _, v := range views {
		occupant := v.Occupant()
		if occupant == "" {
			occupant = "-"
		}
		orderID, orderStatus, lines, total := "-", "-", "-", "-"
		if o := v.ActiveOrder; o != nil {
			orderID = strconv.FormatUint(uint64(o.ID), 10)
			orderStatus = string(o.Status)
			lines = strconv.Itoa(len(o.Lines))
			total = utils.FormatCurrencyBRL(o.Total)
		}
		if err := table.Append(
			strconv.Itoa(v.Number), string(v.Status), occupant,
			orderID, orderStatus, lines, total,
		); err != nil {
			return fmt.Errorf("append table %d: %w", v.Number, err)
		}
	}
	return table.Render()
}
