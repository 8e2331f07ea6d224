package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakery-bliss/bakery/internal/commission"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	for _, path := range [][]string{
		{"start"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"seed"},
		{"worker", "run"},
		{"commission", "calc"},
		{"orders", "deliver"},
		{"orders", "sweep"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestPrintCommission(t *testing.T) {
	calc, err := commission.NewCalculator(commission.DefaultRates())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printCommission(&out, calc, decimal.RequireFromString("30"), true))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"main_baker", "20%", "6.00", "0.60", "6.60"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"junior_baker", "15%", "4.50", "0.45", "4.95"}, strings.Fields(lines[2]))
}

func TestCommissionCalc_RejectsBadTotal(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"commission", "calc", "thirty"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	assert.Error(t, root.Execute())
}
