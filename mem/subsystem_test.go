package mem_test

import (
	"testing"

	"github.com/pep9vm/pep9core/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubsystem() *mem.Subsystem {
	m := mem.New()
	m.Construct([]mem.Spec{
		{Kind: mem.RAM, Base: 0x0000, Span: 0x8000},
		{Kind: mem.ROM, Base: 0x8000, Span: 0x7FFD},
		{Kind: mem.InputPort, Base: 0xFFFD, Span: 1},
		{Kind: mem.OutputPort, Base: 0xFFFE, Span: 1},
	})
	return m
}

func TestSubsystem_ReadWriteByte_RAM(t *testing.T) {
	m := newTestSubsystem()

	require.NoError(t, m.WriteByte(0x0010, 0x41))
	got, err := m.ReadByte(0x0010)
	require.NoError(t, err)
	assert.Equal(t, byte(0x41), got)
}

func TestSubsystem_ReadWord_BigEndian(t *testing.T) {
	m := newTestSubsystem()

	require.NoError(t, m.WriteWord(0x0020, 0x1234))
	hi, _ := m.ReadByte(0x0020)
	lo, _ := m.ReadByte(0x0021)
	assert.Equal(t, byte(0x12), hi, "big-endian: high byte at lower address")
	assert.Equal(t, byte(0x34), lo)

	word, err := m.ReadWord(0x0020)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), word)
}

func TestSubsystem_WriteROM_SilentlyIgnoredByDefault(t *testing.T) {
	m := newTestSubsystem()

	err := m.WriteByte(0x8000, 0xFF)
	require.NoError(t, err, "ROM writes are silently ignored by default")

	got, _ := m.ReadByte(0x8000)
	assert.Equal(t, byte(0), got, "ROM contents must not change")
}

func TestSubsystem_WriteROM_StrictModeErrors(t *testing.T) {
	m := newTestSubsystem()
	m.StrictROM = true

	err := m.WriteByte(0x8000, 0xFF)
	require.Error(t, err)
}

func TestSubsystem_UnmappedRead_ReturnsZeroAndSetsFlag(t *testing.T) {
	m := mem.New() // no chips installed at all

	got, err := m.ReadByte(0x1234)
	require.Error(t, err)
	assert.Equal(t, byte(0), got)
	assert.True(t, m.UnmappedReadOccurred())
}

func TestSubsystem_InputPort_EmptyReturnsErrInputEmpty(t *testing.T) {
	m := newTestSubsystem()

	var requested bool
	m.OnInputRequested = func(addr uint16) { requested = true }

	_, err := m.ReadByte(0xFFFD)
	assert.ErrorIs(t, err, mem.ErrInputEmpty)
	assert.True(t, requested, "OnInputRequested should fire on an empty-buffer read")
}

func TestSubsystem_InputPort_FulfillThenRead(t *testing.T) {
	m := newTestSubsystem()

	require.NoError(t, m.FulfillInput(0xFFFD, 'X'))

	b, err := m.ReadByte(0xFFFD)
	require.NoError(t, err)
	assert.Equal(t, byte('X'), b)

	_, err = m.ReadByte(0xFFFD)
	assert.ErrorIs(t, err, mem.ErrInputEmpty, "queue should be drained after one read")
}

func TestSubsystem_OutputPort_FiresCallbackSynchronously(t *testing.T) {
	m := newTestSubsystem()

	var gotAddr uint16
	var gotByte byte
	m.OnOutputWritten = func(addr uint16, b byte) {
		gotAddr, gotByte = addr, b
	}

	require.NoError(t, m.WriteByte(0xFFFE, 'A'))
	assert.Equal(t, uint16(0xFFFE), gotAddr)
	assert.Equal(t, byte('A'), gotByte)
}

func TestSubsystem_Clear_ZeroesRAMAndDrainsPorts(t *testing.T) {
	m := newTestSubsystem()

	m.WriteByte(0x0010, 0x99)
	m.FulfillInput(0xFFFD, 'Z')

	m.Clear()

	got, _ := m.ReadByte(0x0010)
	assert.Equal(t, byte(0), got)

	_, err := m.ReadByte(0xFFFD)
	assert.ErrorIs(t, err, mem.ErrInputEmpty, "Clear should drain pre-buffered input")
}

func TestSubsystem_LoadValues(t *testing.T) {
	m := newTestSubsystem()

	require.NoError(t, m.LoadValues(0x0100, []byte{1, 2, 3, 4}))
	for i, want := range []byte{1, 2, 3, 4} {
		got, _ := m.ReadByte(0x0100 + uint16(i))
		assert.Equal(t, want, got)
	}
}
