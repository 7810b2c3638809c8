package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-count/internal/auth"
	"stock-count/internal/reconcile"
)

const stockList = "id,brand,description,location,qty\n" +
	",,,,[E]Close SC\n" +
	"P001,Acme,Widget,Bay1,10\n" +
	"P002,Bolt,Nut,Bay2,5\n" +
	"P003,Gordons,London Dry Gin,Cellar,12\n"

const countsCSV = "product_id,count,location,note\n" +
	"P001,5,Bar 1,\n" +
	"P001,3,Cellar,back shelf\n" +
	"NOPE,1,Bar 1,\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with fresh flag values
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	rawFile, countsFile, reportType, outFile = "", "", "standard", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInfer(t *testing.T) {
	path := writeFile(t, "stock.csv", stockList)

	out, err := execute(t, "", "infer", path)
	require.NoError(t, err)
	assert.Contains(t, out, "File:      stock.csv")
	assert.Contains(t, out, "Strategy:  standard")
	assert.Contains(t, out, "<- qty")
	assert.Contains(t, out, "product_id,brand,description")
	assert.Contains(t, out, "P003,Gordons,London Dry Gin,Cellar,12")
}

func TestInfer_MissingColumns(t *testing.T) {
	path := writeFile(t, "bad.csv", "id,brand\n1,Acme\n")

	_, err := execute(t, "", "infer", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Required column types missing")
}

func TestReconcile(t *testing.T) {
	raw := writeFile(t, "stock.csv", stockList)
	counts := writeFile(t, "counts.csv", countsCSV)

	out, err := execute(t, "", "reconcile", "--raw", raw, "--counts", counts)
	require.NoError(t, err)
	assert.Contains(t, out, "P001,Acme,Widget,Bay1,8\n")
	assert.Contains(t, out, "P002,Bolt,Nut,Bay2,0\n")
	assert.True(t, strings.HasPrefix(out, "id,brand,description,location,qty\n,,,,[E]Close SC\n"))
}

func TestReconcile_CountedToFile(t *testing.T) {
	raw := writeFile(t, "stock.csv", stockList)
	counts := writeFile(t, "counts.csv", countsCSV)
	dest := filepath.Join(t.TempDir(), "out.csv")

	_, err := execute(t, "", "reconcile", "-r", raw, "-c", counts, "-t", "counted", "-o", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "id,brand,description,location,qty\n,,,,[E]Close SC\nP001,Acme,Widget,Bay1,8\n", string(data))
}

func TestReconcile_Errors(t *testing.T) {
	noMarker := writeFile(t, "stock.csv", "id,brand,description,location,qty\nP001,Acme,Widget,Bay1,10\nP002,Bolt,Nut,Bay2,5\n")
	counts := writeFile(t, "counts.csv", countsCSV)

	_, err := execute(t, "", "reconcile", "--raw", noMarker, "--counts", counts)
	assert.ErrorIs(t, err, reconcile.ErrMarkerNotFound)

	raw := writeFile(t, "stock.csv", stockList)
	_, err = execute(t, "", "reconcile", "--raw", raw, "--counts", counts, "--type", "weekly")
	assert.Error(t, err)

	badCounts := writeFile(t, "counts.csv", "product_id,count\nP001,lots\n")
	_, err = execute(t, "", "reconcile", "--raw", raw, "--counts", badCounts)
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "", "hash-password", "s3cret")
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword(strings.TrimSpace(out), "s3cret"))

	out, err = execute(t, "from-stdin\n", "hash-password")
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword(strings.TrimSpace(out), "from-stdin"))

	_, err = execute(t, "", "hash-password")
	assert.Error(t, err)
}
