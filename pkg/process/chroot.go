package process

import (
	"context"
	"fmt"
	"path/filepath"
)

// chrootBindMounts are bind-mounted into the target root before any
// in-chroot command runs and unmounted, in reverse order, once it exits.
var chrootBindMounts = []string{"/dev", "/proc", "/sys", "/run"}

// ChrootExec bind-mounts the standard pseudo-filesystems into root and
// runs argv under chroot, always unmounting in reverse order even on
// early return. Grounded on the bind-mount-then-chroot shape the teacher
// used for initramfs regeneration, generalized into the one place every
// System Configurator and Bootloader Generator operation that must act
// inside the installed system goes through.
func ChrootExec(ctx context.Context, root string, argv []string, opts ...Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var mounted []string
	for _, m := range chrootBindMounts {
		target := filepath.Join(root, m)
		if _, err := RunChecked(ctx, []string{"mount", "--bind", m, target}); err != nil {
			unmountAll(mounted)
			return fmt.Errorf("bind mount %s into %s: %w", m, root, err)
		}
		mounted = append(mounted, target)
	}
	defer unmountAll(mounted)

	full := append([]string{"chroot", root}, argv...)
	if _, err := RunChecked(ctx, full, opts...); err != nil {
		return fmt.Errorf("chroot %s %v: %w", root, argv, err)
	}
	return nil
}

func unmountAll(mounted []string) {
	for i := len(mounted) - 1; i >= 0; i-- {
		_, _ = Run(context.Background(), []string{"umount", mounted[i]})
	}
}
