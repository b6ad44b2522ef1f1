package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSVD = `<?xml version="1.0"?>
<device>
  <name>TEST_DEVICE</name>
  <peripherals>
    <peripheral>
      <name>TEST_PERIPHERAL</name>
      <baseAddress>0x1000</baseAddress>
      <registers>
        <register>
          <name>TEST_REGISTER</name>
          <addressOffset>0</addressOffset>
          <size>32</size>
          <fields>
            <field>
              <name>TEST_FIELD</name>
              <bitOffset>0</bitOffset>
              <bitWidth>1</bitWidth>
            </field>
          </fields>
        </register>
      </registers>
    </peripheral>
  </peripherals>
</device>`

func resetOpts() {
	opts.schema = ""
	opts.outputPath = ""
	opts.json = false
}

func runCLI(t *testing.T, stdin string, args []string) (string, error) {
	t.Helper()
	resetOpts()
	defer resetOpts()
	rootCmd.SetIn(strings.NewReader(stdin))
	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	// cobra reads os.Args when the argument slice is nil, so always pass a
	// non-nil slice to really run with no positional arguments.
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stderr.String(), err
}

func TestGenerateFromPathToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "device.svd")
	require.NoError(t, os.WriteFile(in, []byte(sampleSVD), 0o644))
	out := filepath.Join(dir, "nested", "out.txt")

	_, err := runCLI(t, "", []string{in, "-o", out})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TEST_PERIPHERAL = packed struct { TEST_REGISTER: Mmio(32, packed struct { TEST_FIELD: u1, padding: u31 = 0 }) }")
}

func TestStdinRequiresSchema(t *testing.T) {
	_, err := runCLI(t, sampleSVD, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--schema")
}

func TestStdinWithSchema(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	_, err := runCLI(t, sampleSVD, []string{"--schema", "svd", "-o", out})
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TEST_PERIPHERAL")
}

func TestJSONRoundTripThroughCLI(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "device.svd")
	require.NoError(t, os.WriteFile(in, []byte(sampleSVD), 0o644))
	jsonOut := filepath.Join(dir, "out.json")

	_, err := runCLI(t, "", []string{in, "-j", "-o", jsonOut})
	require.NoError(t, err)

	jsonIn, err := os.ReadFile(jsonOut)
	require.NoError(t, err)
	assert.Contains(t, string(jsonIn), `"TEST_PERIPHERAL"`)

	codeOut := filepath.Join(dir, "out.txt")
	_, err = runCLI(t, "", []string{jsonOut, "-o", codeOut})
	require.NoError(t, err)
	data, err := os.ReadFile(codeOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TEST_PERIPHERAL = packed struct")
}

func TestUnknownExtensionRequiresSchema(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "device.unknown")
	require.NoError(t, os.WriteFile(in, []byte(sampleSVD), 0o644))

	_, err := runCLI(t, "", []string{in})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--schema")
}
