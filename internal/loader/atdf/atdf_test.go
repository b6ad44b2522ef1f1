package atdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwgen/internal/db"
	"hwgen/internal/diag"

	"github.com/clbanning/mxj"
)

func mustLoad(t *testing.T, xmlText string) (*db.DB, *diag.Log) {
	t.Helper()
	doc, err := mxj.NewMapXmlReader(strings.NewReader(xmlText))
	require.NoError(t, err)
	database := db.New()
	log, err := Load(database, doc)
	require.NoError(t, err)
	return database, log
}

func TestModuleRegisterGroupInlining(t *testing.T) {
	database, _ := mustLoad(t, `<avr-tools-device-file>
		<modules>
			<module name="PORT" caption="Port">
				<register-group name="PORT" offset="0">
					<register name="OUT" offset="0" size="1" rw="RW" mask="0xff"/>
				</register-group>
			</module>
		</modules>
		<devices>
			<device name="ATTEST" architecture="AVR8">
				<peripherals>
					<module name="PORT">
						<instance name="PORTB" offset="0x23"/>
					</module>
				</peripherals>
			</device>
		</devices>
	</avr-tools-device-file>`)

	require.NoError(t, database.AssertValid())
	per, err := database.ByName(db.KindPeripheralType, "PORT")
	require.NoError(t, err)
	reg, err := database.ByName(db.KindRegisterType, "OUT")
	require.NoError(t, err)
	parent, ok := database.Parent(reg)
	require.True(t, ok)
	assert.Equal(t, per, parent, "register-group named after its module inlines directly onto the peripheral")

	inst, err := database.ByName(db.KindPeripheralInstance, "PORTB")
	require.NoError(t, err)
	off, _ := database.Offset(inst)
	assert.Equal(t, 0x23, off)
}

func TestNestedRegisterGroupNotInlined(t *testing.T) {
	database, _ := mustLoad(t, `<avr-tools-device-file>
		<modules>
			<module name="PORT">
				<register-group name="PORTB" offset="0x23">
					<register name="OUT" offset="0" size="1" rw="RW" mask="0xff"/>
				</register-group>
			</module>
		</modules>
		<devices>
			<device name="D" architecture="AVR8"></device>
		</devices>
	</avr-tools-device-file>`)

	grp, err := database.ByName(db.KindRegisterGroupType, "PORTB")
	require.NoError(t, err)
	off, ok := database.Offset(grp)
	require.True(t, ok)
	assert.Equal(t, 0x23, off)
}

func TestDiscontiguousMaskSplitsIntoSingleBitFields(t *testing.T) {
	database, log := mustLoad(t, `<avr-tools-device-file>
		<modules>
			<module name="M">
				<register-group name="M">
					<register name="R" offset="0" size="1" rw="RW" mask="0xff">
						<bitfield name="SPLIT" mask="0x05" caption="discontiguous"/>
					</register>
				</register-group>
			</module>
		</modules>
		<devices><device name="D" architecture="AVR8"></device></devices>
	</avr-tools-device-file>`)

	_, err := database.ByName(db.KindFieldType, "SPLIT_bit0")
	require.NoError(t, err)
	_, err = database.ByName(db.KindFieldType, "SPLIT_bit2")
	require.NoError(t, err)
	_, err = database.ByName(db.KindFieldType, "SPLIT")
	assert.Error(t, err, "an undivided field named SPLIT should not also exist")
	assert.NotEmpty(t, log.Entries())
}

func TestModeResolutionOnRegister(t *testing.T) {
	database, _ := mustLoad(t, `<avr-tools-device-file>
		<modules>
			<module name="M">
				<mode name="MODE_A" value="0" qualifier="M.MODE_A.R.F"/>
				<register-group name="M">
					<register name="R" offset="0" size="1" rw="RW" mask="0x01" modes="MODE_A">
						<bitfield name="F" mask="0x01"/>
					</register>
				</register-group>
			</module>
		</modules>
		<devices><device name="D" architecture="AVR8"></device></devices>
	</avr-tools-device-file>`)

	reg, err := database.ByName(db.KindRegisterType, "R")
	require.NoError(t, err)
	modes := database.Modes(reg)
	require.Len(t, modes, 1)
	name, _ := database.Name(modes[0])
	assert.Equal(t, "MODE_A", name)
}

func TestUnresolvedModeNameWarnsAndSkips(t *testing.T) {
	database, log := mustLoad(t, `<avr-tools-device-file>
		<modules>
			<module name="M">
				<register-group name="M">
					<register name="R" offset="0" size="1" rw="RW" mask="0x01" modes="GHOST_MODE">
						<bitfield name="F" mask="0x01"/>
					</register>
				</register-group>
			</module>
		</modules>
		<devices><device name="D" architecture="AVR8"></device></devices>
	</avr-tools-device-file>`)

	reg, err := database.ByName(db.KindRegisterType, "R")
	require.NoError(t, err)
	assert.Empty(t, database.Modes(reg))
	assert.NotEmpty(t, log.Entries())
}

func TestValueGroupEnumAttachment(t *testing.T) {
	database, _ := mustLoad(t, `<avr-tools-device-file>
		<modules>
			<module name="M">
				<value-group name="SEL_VALUES">
					<value name="OFF" value="0"/>
					<value name="ON" value="1"/>
				</value-group>
				<register-group name="M">
					<register name="R" offset="0" size="1" rw="RW" mask="0x01">
						<bitfield name="SEL" mask="0x01" values="SEL_VALUES"/>
					</register>
				</register-group>
			</module>
		</modules>
		<devices><device name="D" architecture="AVR8"></device></devices>
	</avr-tools-device-file>`)

	fld, err := database.ByName(db.KindFieldType, "SEL")
	require.NoError(t, err)
	enumID, ok := database.EnumRef(fld)
	require.True(t, ok)
	name, _ := database.Name(enumID)
	assert.Equal(t, "SEL_VALUES", name)
}

func TestUnknownModuleInstanceWarnsAndSkips(t *testing.T) {
	database, log := mustLoad(t, `<avr-tools-device-file>
		<devices>
			<device name="D" architecture="AVR8">
				<peripherals>
					<module name="GHOST">
						<instance name="X" offset="0"/>
					</module>
				</peripherals>
			</device>
		</devices>
	</avr-tools-device-file>`)

	_, err := database.ByName(db.KindPeripheralInstance, "X")
	assert.Error(t, err)
	assert.NotEmpty(t, log.Entries())
}
