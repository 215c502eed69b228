package csv

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

const reportHeader = "OrderID;Username;Name;Street;City;Country;Is Professional;VAT Number;Date of Purchase;Article Count;Merchandise Value;Shipment Costs;Trustee service fee;Total Value;Currency;Description;Product ID;Localized Product Name\n"

func TestLoadDirMergesFiles(t *testing.T) {
	dir := t.TempDir()

	first := reportHeader +
		"1000001;alice;Alice A;Street 1;Berlin;Germany;;;2024-01-15 10:23:11;1;2,50;1,00;0,00;3,50;EUR;1x Lightning Bolt (Magic 2010) - 146 - Common - NM - English - 2,50 EUR;;\n"
	second := reportHeader +
		"1000002;bob;Bob B;Street 2;Paris;France;;;2024-02-03;2;5,00;1,50;0,00;6,50;EUR;2x Counterspell (Magic 2010) - 50 - Common - EX - English - 2,50 EUR;;\n"

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte(first), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte(second), 0o644))

	loader := NewLoader(log.New(io.Discard))
	orders, err := loader.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	require.Equal(t, "1000001", orders[0].OrderID)
	require.Equal(t, "alice", orders[0].Username)
	require.Equal(t, "EUR", orders[0].Currency)
	require.Equal(t, 2024, orders[0].Purchased.Year())
	require.Equal(t, 1, orders[0].ArticleCount)
	require.Equal(t, "2.50", orders[0].MerchandiseValue.StringFixed(2))

	// Date-only timestamps parse too, and only the day is kept.
	require.Equal(t, "2024-02-03", orders[1].Purchased.Format("2006-01-02"))
	require.Equal(t, 2, orders[1].ArticleCount)
}

func TestLoadDirSkipsShortRows(t *testing.T) {
	dir := t.TempDir()
	content := reportHeader +
		"not;enough;columns\n" +
		"1000003;carol;Carol C;Street 3;Rome;Italy;;;2024-03-01 09:00:00;1;1,00;1,00;0,00;2,00;EUR;1x Card (Set) - NM - English - 1,00 EUR;;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.csv"), []byte(content), 0o644))

	loader := NewLoader(log.New(io.Discard))
	orders, err := loader.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "1000003", orders[0].OrderID)
}

func TestLoadDirEmptyDirectory(t *testing.T) {
	loader := NewLoader(log.New(io.Discard))
	orders, err := loader.LoadDir(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, orders)
}
