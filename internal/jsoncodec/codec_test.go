package jsoncodec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hwgen/internal/db"
)

func buildSampleDatabase(t *testing.T) *db.DB {
	t.Helper()
	d := db.New()
	per := d.CreatePeripheralType("TEST_PERIPHERAL")
	d.SetDescription(per, "a sample peripheral")

	enum, err := d.CreateEnum(per, "MODE_SEL")
	require.NoError(t, err)
	_, err = d.CreateEnumField(enum, "OFF", 0)
	require.NoError(t, err)
	_, err = d.CreateEnumField(enum, "ON", 1)
	require.NoError(t, err)

	reg, err := d.CreateRegister(per, "CTRL", 0, 32)
	require.NoError(t, err)
	d.SetAccess(reg, db.AccessReadWrite)

	fld, err := d.CreateField(reg, "ENABLE", 0, 1)
	require.NoError(t, err)
	require.NoError(t, d.SetEnumRef(fld, enum))
	d.SetAccess(fld, db.AccessReadOnly)

	dev := d.CreateDevice("TEST_DEVICE")
	_, err = d.CreatePeripheralInstance(dev, "PER0", per, 0x4000)
	require.NoError(t, err)
	_, err = d.CreateInterrupt(dev, "PER0_IRQ", 5)
	require.NoError(t, err)

	require.NoError(t, d.AssertValid())
	return d
}

func TestMarshalOmitsReadWriteAccess(t *testing.T) {
	d := buildSampleDatabase(t)
	out, err := Marshal(d)
	require.NoError(t, err)
	require.NotContains(t, string(out), `"read-write"`)
	require.Contains(t, string(out), `"read-only"`)
}

func TestRoundTrip(t *testing.T) {
	d := buildSampleDatabase(t)
	out, err := Marshal(d)
	require.NoError(t, err)

	restored, err := Unmarshal(out)
	require.NoError(t, err)
	require.NoError(t, restored.AssertValid())

	per, err := restored.ByName(db.KindPeripheralType, "TEST_PERIPHERAL")
	require.NoError(t, err)
	desc, ok := restored.Description(per)
	require.True(t, ok)
	require.Equal(t, "a sample peripheral", desc)

	reg, err := restored.ByName(db.KindRegisterType, "CTRL")
	require.NoError(t, err)
	acc, ok := restored.GetAccess(reg)
	require.True(t, ok)
	require.Equal(t, db.AccessReadWrite, acc)

	again, err := Marshal(restored)
	require.NoError(t, err)
	require.JSONEq(t, string(out), string(again))
}

func TestRoundTripEmptyDatabase(t *testing.T) {
	d := db.New()
	out, err := Marshal(d)
	require.NoError(t, err)
	require.JSONEq(t, `{"version":"`+Version+`"}`, string(out))

	restored, err := Unmarshal(out)
	require.NoError(t, err)
	require.NoError(t, restored.AssertValid())
}
