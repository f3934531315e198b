package bootloader

import (
	"strings"
	"testing"
)

func TestRenderGrubDefaults_UncommentsAndSubstitutes(t *testing.T) {
	cfg := DefaultGrubConfig()
	cfg.CmdlineLinuxDefault = "quiet splash"
	cfg.EnableCryptodisk = true

	out := RenderGrubDefaults(grubDefaultTemplate, cfg)

	if !strings.Contains(out, `GRUB_CMDLINE_LINUX_DEFAULT="quiet splash"`) {
		t.Errorf("expected rendered cmdline default, got:\n%s", out)
	}
	if !strings.Contains(out, "GRUB_ENABLE_CRYPTODISK=y") {
		t.Errorf("expected uncommented cryptodisk=y, got:\n%s", out)
	}
	if strings.Contains(out, "#GRUB_ENABLE_CRYPTODISK") {
		t.Errorf("expected cryptodisk line to no longer be commented, got:\n%s", out)
	}
	if !strings.Contains(out, "GRUB_DISABLE_RECOVERY=true") {
		t.Errorf("expected disable_recovery=true (DefaultGrubConfig sets it), got:\n%s", out)
	}
}

func TestRenderGrubDefaults_PreservesUnknownLines(t *testing.T) {
	out := RenderGrubDefaults(grubDefaultTemplate, DefaultGrubConfig())
	if !strings.Contains(out, "# GRUB boot loader configuration") {
		t.Errorf("expected leading comment preserved, got:\n%s", out)
	}
}

func TestGrubBool(t *testing.T) {
	if grubBool(true, true) != "y" || grubBool(false, true) != "n" {
		t.Fatal("grubBool yn mode mismatch")
	}
	if grubBool(true, false) != "true" || grubBool(false, false) != "false" {
		t.Fatal("grubBool true/false mode mismatch")
	}
}
