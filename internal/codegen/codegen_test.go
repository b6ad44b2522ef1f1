package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"hwgen/internal/db"
	"hwgen/internal/diag"
)

func generateString(t *testing.T, database *db.DB) string {
	t.Helper()
	require.NoError(t, database.AssertValid())
	log := &diag.Log{}
	out, err := Generate(database, log, nil)
	require.NoError(t, err)
	return string(out)
}

// Scenario 1: one register, one 1-bit field.
func TestScenarioSingleFieldRegister(t *testing.T) {
	d := db.New()
	per := d.CreatePeripheralType("TEST_PERIPHERAL")
	reg, err := d.CreateRegister(per, "TEST_REGISTER", 0, 32)
	require.NoError(t, err)
	_, err = d.CreateField(reg, "TEST_FIELD", 0, 1)
	require.NoError(t, err)

	out := generateString(t, d)
	require.Contains(t, out, "TEST_PERIPHERAL = packed struct { TEST_REGISTER: Mmio(32, packed struct { TEST_FIELD: u1, padding: u31 = 0 }) }")
}

// Scenario 2: two instances sharing one type.
func TestScenarioTwoInstancesSharedType(t *testing.T) {
	d := db.New()
	per := d.CreatePeripheralType("TEST_PERIPHERAL")
	_, err := d.CreateRegister(per, "TEST_REGISTER", 0, 32)
	require.NoError(t, err)
	dev := d.CreateDevice("TEST_DEVICE")
	_, err = d.CreatePeripheralInstance(dev, "PER0", per, 0x1000)
	require.NoError(t, err)
	_, err = d.CreatePeripheralInstance(dev, "PER1", per, 0x2000)
	require.NoError(t, err)

	out := generateString(t, d)
	require.Contains(t, out, "PER0 = ptr(types.TEST_PERIPHERAL, 0x1000);")
	require.Contains(t, out, "PER1 = ptr(types.TEST_PERIPHERAL, 0x2000);")
}

// Scenario 3: two modes and a common register.
func TestScenarioModeUnion(t *testing.T) {
	d := db.New()
	per := d.CreatePeripheralType("TEST_PERIPHERAL")
	mode1, err := d.CreateMode(per, "TEST_MODE1", "0", "TEST_PERIPHERAL.TEST_MODE1.COMMON_REGISTER.TEST_FIELD")
	require.NoError(t, err)
	mode2, err := d.CreateMode(per, "TEST_MODE2", "1", "TEST_PERIPHERAL.TEST_MODE2.COMMON_REGISTER.TEST_FIELD")
	require.NoError(t, err)
	reg, err := d.CreateRegister(per, "COMMON_REGISTER", 0, 8)
	require.NoError(t, err)
	_, err = d.CreateField(reg, "TEST_FIELD", 0, 1)
	require.NoError(t, err)

	out := generateString(t, d)
	require.Contains(t, out, "Mode = enum { TEST_MODE1, TEST_MODE2 }")
	require.Contains(t, out, "self.TEST_MODE1.COMMON_REGISTER.read().TEST_FIELD")
	require.Contains(t, out, "case 0: return .TEST_MODE1")
	require.Contains(t, out, "case 1: return .TEST_MODE2")
	require.Contains(t, out, "unreachable")
	require.Contains(t, out, "TEST_MODE1: packed struct { COMMON_REGISTER:")
	require.Contains(t, out, "TEST_MODE2: packed struct { COMMON_REGISTER:")
	_ = mode1
	_ = mode2
}

// Scenario 4: exhausted 1-bit enum of two fields.
func TestScenarioExhaustedEnum(t *testing.T) {
	d := db.New()
	per := d.CreatePeripheralType("TEST_PERIPHERAL")
	enum, err := d.CreateEnum(per, "TEST_ENUM")
	require.NoError(t, err)
	_, err = d.CreateEnumField(enum, "TEST_ENUM_FIELD1", 0)
	require.NoError(t, err)
	_, err = d.CreateEnumField(enum, "TEST_ENUM_FIELD2", 1)
	require.NoError(t, err)
	reg, err := d.CreateRegister(per, "CTRL", 0, 8)
	require.NoError(t, err)
	fld, err := d.CreateField(reg, "SEL", 0, 1)
	require.NoError(t, err)
	require.NoError(t, d.SetEnumRef(fld, enum))

	out := generateString(t, d)
	require.Contains(t, out, "TEST_ENUM = enum(u1) { TEST_ENUM_FIELD1 = 0x0, TEST_ENUM_FIELD2 = 0x1 }")
	require.NotContains(t, out, "TEST_ENUM_FIELD2 = 0x1, _")
}

// Scenario 5: two namespaced register groups (AVR PORT-style).
func TestScenarioNamespacedRegisterGroups(t *testing.T) {
	d := db.New()
	port := d.CreatePeripheralType("PORT")
	portb, err := d.CreateRegisterGroup(port, "PORTB")
	require.NoError(t, err)
	_, err = d.CreateRegister(portb, "OUT", 0, 8)
	require.NoError(t, err)
	portc, err := d.CreateRegisterGroup(port, "PORTC")
	require.NoError(t, err)
	_, err = d.CreateRegister(portc, "OUT", 0, 8)
	require.NoError(t, err)

	dev := d.CreateDevice("TEST_DEVICE")
	_, err = d.CreatePeripheralInstance(dev, "PORTB", portb, 0x23)
	require.NoError(t, err)
	_, err = d.CreatePeripheralInstance(dev, "PORTC", portc, 0x26)
	require.NoError(t, err)

	out := generateString(t, d)
	require.Contains(t, out, "PORT = packed struct { PORTB: packed struct")
	require.Contains(t, out, "PORTC: packed struct")
	require.Contains(t, out, "PORTB = ptr(types.PORT.PORTB, 0x23);")
	require.Contains(t, out, "PORTC = ptr(types.PORT.PORTC, 0x26);")
}

// B1/B2: reserved gaps and overlap tie-break.
func TestReservedGapAndOverlapTieBreak(t *testing.T) {
	d := db.New()
	per := d.CreatePeripheralType("GAPPY")
	_, err := d.CreateRegister(per, "FIRST", 0, 8)
	require.NoError(t, err)
	_, err = d.CreateRegister(per, "SECOND", 4, 8)
	require.NoError(t, err)
	_, err = d.CreateRegister(per, "SECOND_ALIAS", 4, 16)
	require.NoError(t, err)

	out := generateString(t, d)
	require.Contains(t, out, "reserved4: [3]u8")
	require.Contains(t, out, "SECOND: u8")
	require.NotContains(t, out, "SECOND_ALIAS")
}

func TestZeroSizedPeripheralOmitsPackedQualifier(t *testing.T) {
	d := db.New()
	d.CreatePeripheralType("EMPTY")
	out := generateString(t, d)
	require.Contains(t, out, "EMPTY = struct {  }")
}

func TestGenerateIsDeterministic(t *testing.T) {
	d := db.New()
	per := d.CreatePeripheralType("TEST_PERIPHERAL")
	_, err := d.CreateRegister(per, "TEST_REGISTER", 0, 32)
	require.NoError(t, err)

	first := generateString(t, d)
	second := generateString(t, d)
	require.Equal(t, first, second)
}

func TestIdentityFormatterStripsSentinel(t *testing.T) {
	out, err := IdentityFormatter{}.Format([]byte("hello\x00"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(out))
	require.False(t, strings.ContainsRune(string(out), 0))
}
