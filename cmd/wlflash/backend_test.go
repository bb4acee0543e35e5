package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-wlflash/config"
	"github.com/moffa90/go-wlflash/flash"
	"github.com/moffa90/go-wlflash/register"
	"github.com/moffa90/go-wlflash/sim"
	"github.com/moffa90/go-wlflash/trace"
)

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(&Globals{Port: "/dev/ttyACM0", Core: "cm0p", LogLevel: "debug"})
	require.NoError(t, err)

	assert.Equal(t, config.BackendSerial, cfg.Link.Backend)
	assert.Equal(t, "/dev/ttyACM0", cfg.Link.Port)
	assert.Equal(t, register.CPU2, cfg.View())
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = loadConfig(&Globals{Backend: "jtag"})
	assert.ErrorContains(t, err, "link.backend")
}

func TestOpenSimWithTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.trace")

	s, err := open(&Globals{Backend: config.BackendSim, TraceFile: path, LogLevel: "error"})
	require.NoError(t, err)
	require.NotNil(t, s.sim)

	require.NoError(t, s.ctrl.Program(context.Background(), register.FlashBase, 0x42))
	session := s.recorder.SessionID()
	s.close()

	r, err := trace.OpenFiltered(path, trace.Filter{SessionID: session})
	require.NoError(t, err)
	defer r.Close()

	events, err := r.All()
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}

func TestSimImagePersistsFlash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.hex")
	g := &Globals{Backend: config.BackendSim, SimImage: path, LogLevel: "error"}

	s, err := open(g)
	require.NoError(t, err)
	v, err := s.ctrl.ReadDoubleWord(register.FlashBase + 0x808)
	require.NoError(t, err)
	assert.Equal(t, uint64(register.ErasedDoubleWord), v, "missing image starts erased")
	require.NoError(t, s.ctrl.Program(context.Background(), register.FlashBase+0x808, 0x1122_3344_5566_7788))
	s.close()
	require.FileExists(t, path)

	s, err = open(g)
	require.NoError(t, err)
	v, err = s.ctrl.ReadDoubleWord(register.FlashBase + 0x808)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1122_3344_5566_7788), v)

	err = s.ctrl.Program(context.Background(), register.FlashBase+0x808, 0x1)
	assert.ErrorIs(t, err, flash.ErrProg, "reloaded double-word is not erased")
	s.close()
}

func TestSaveSimImageRemovesEmptyImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.hex")
	require.NoError(t, os.WriteFile(path, []byte(":00000001FF\n"), 0o644))

	require.NoError(t, saveSimImage(sim.New(), path))
	assert.NoFileExists(t, path)
}

func TestParseUint(t *testing.T) {
	v, err := parseUint("0x0800_1000", 32)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0800_1000), v)

	_, err = parseUint("0x1_0000_0000", 32)
	assert.Error(t, err)
}
