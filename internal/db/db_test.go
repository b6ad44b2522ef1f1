package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwiceAfterCreate(t *testing.T) {
	assert := assert.New(t)
	d := New()
	id := d.CreateEntity()
	d.Register(id, KindPeripheralType)
	assert.Panics(func() { d.Register(id, KindPeripheralType) })
}

func TestSimplePeripheralGraphValid(t *testing.T) {
	d := New()
	per := d.CreatePeripheralType("TEST_PERIPHERAL")
	reg, err := d.CreateRegister(per, "TEST_REGISTER", 0, 32)
	require.NoError(t, err)
	_, err = d.CreateField(reg, "TEST_FIELD", 0, 1)
	require.NoError(t, err)

	require.NoError(t, d.AssertValid())
	assert.True(t, d.EntityIs(KindPeripheralType, per))
	assert.True(t, d.EntityIs(KindRegisterType, reg))

	got, err := d.ByName(KindPeripheralType, "TEST_PERIPHERAL")
	require.NoError(t, err)
	assert.Equal(t, per, got)

	_, err = d.ByName(KindPeripheralType, "NOPE")
	assert.IsType(t, &NameNotFoundError{}, err)
}

func TestAddChildKindMismatch(t *testing.T) {
	d := New()
	per := d.CreatePeripheralType("P")
	reg, err := d.CreateRegister(per, "R", 0, 32)
	require.NoError(t, err)
	fld, err := d.CreateField(reg, "F", 0, 1)
	require.NoError(t, err)

	// a field cannot parent a register: violates the declared edges (I2).
	_, err = d.CreateRegister(fld, "BAD", 0, 32)
	assert.IsType(t, &KindMismatchError{}, err)
}

func TestCycleDetected(t *testing.T) {
	d := New()
	per := d.CreatePeripheralType("P")
	grp, err := d.CreateRegisterGroup(per, "G")
	require.NoError(t, err)
	err = d.AddChild(grp, per)
	assert.IsType(t, &CycleDetectedError{}, err)
}

func TestModeScopeValid(t *testing.T) {
	d := New()
	per := d.CreatePeripheralType("P")
	mode, err := d.CreateMode(per, "MODE1", "0", "P.MODE1.R.F")
	require.NoError(t, err)
	reg, err := d.CreateRegister(per, "R", 0, 32)
	require.NoError(t, err)
	require.NoError(t, d.SetModes(reg, []EntityID{mode}))
	require.NoError(t, d.AssertValid())
}

func TestModeScopeViolation(t *testing.T) {
	d := New()
	perA := d.CreatePeripheralType("A")
	perB := d.CreatePeripheralType("B")
	mode, err := d.CreateMode(perB, "MODE1", "0", "B.MODE1.R.F")
	require.NoError(t, err)
	reg, err := d.CreateRegister(perA, "R", 0, 32)
	require.NoError(t, err)
	require.NoError(t, d.SetModes(reg, []EntityID{mode}))
	err = d.AssertValid()
	assert.Error(t, err)
}

func TestEnumScopeValid(t *testing.T) {
	d := New()
	per := d.CreatePeripheralType("P")
	enum, err := d.CreateEnum(per, "E")
	require.NoError(t, err)
	_, err = d.CreateEnumField(enum, "E1", 0)
	require.NoError(t, err)
	reg, err := d.CreateRegister(per, "R", 0, 32)
	require.NoError(t, err)
	fld, err := d.CreateField(reg, "F", 0, 1)
	require.NoError(t, err)
	require.NoError(t, d.SetEnumRef(fld, enum))
	require.NoError(t, d.AssertValid())
}

func TestInstanceTyping(t *testing.T) {
	d := New()
	per := d.CreatePeripheralType("P")
	dev := d.CreateDevice("DEV")
	_, err := d.CreatePeripheralInstance(dev, "P0", per, 0x1000)
	require.NoError(t, err)
	require.NoError(t, d.AssertValid())

	reg, _ := d.CreateRegister(per, "R", 0, 32)
	_, err = d.CreatePeripheralInstance(dev, "BAD", reg, 0x2000)
	assert.IsType(t, &KindMismatchError{}, err)
}

func TestOrphanEntityFailsAssertValid(t *testing.T) {
	d := New()
	d.CreateEntity() // created, never registered
	err := d.AssertValid()
	assert.Error(t, err)
}
