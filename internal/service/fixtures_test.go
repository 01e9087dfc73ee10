package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows (0-indexed, nil rows skipped) into sheets in the given order.
func buildWorkbook(t *testing.T, sheets map[string][][]interface{}, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			if row == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func requestWorkbook(t *testing.T) []byte {
	rows := make([][]interface{}, 17)
	rows[5] = []interface{}{"Delivery Date:", "", 45123}
	rows[6] = []interface{}{"Project", "Open Day"}
	rows[7] = []interface{}{"Requester", "Dr. Lim"}
	rows[8] = []interface{}{"PIC Contact", "0812"}
	rows[9] = []interface{}{"Department", "CS"}
	rows[10] = []interface{}{"Entity", "Campus"}
	rows[13] = []interface{}{"No", "Item", "Quantity", "Suggested Vendor"}
	rows[14] = []interface{}{1, "Pencil", 10, "Acme"}
	rows[16] = []interface{}{2, "Paper", 4}
	return buildWorkbook(t, map[string][][]interface{}{"Form": rows}, "Form")
}
