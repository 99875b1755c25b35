package health

import (
	"context"
	"fmt"
	"strings"

	"github.com/imamik/k3smox/internal/platform/ssh"
	"github.com/imamik/k3smox/internal/util/retry"
)

// CloudInitDone succeeds once cloud-init reports "status: done".
// A cloud-init error is fatal because retrying cannot fix it.
func CloudInitDone(exec ssh.Executor) Probe {
	return ProbeFunc(func(ctx context.Context) error {
		out, err := exec.Execute(ctx, "cloud-init status")
		status := parseCloudInitStatus(out)
		switch status {
		case "done":
			return nil
		case "error":
			return retry.Fatal(fmt.Errorf("cloud-init finished with errors: %s", strings.TrimSpace(out)))
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("cloud-init status is %q", status)
	})
}

func parseCloudInitStatus(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "status:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ServiceActive succeeds once systemd reports unit as active.
func ServiceActive(exec ssh.Executor, unit string) Probe {
	return ProbeFunc(func(ctx context.Context) error {
		out, err := exec.Execute(ctx, "systemctl is-active "+unit)
		state := strings.TrimSpace(out)
		if err != nil || state != "active" {
			return fmt.Errorf("service %s is %q", unit, firstLine(state))
		}
		return nil
	})
}

// FileExists succeeds once path exists and is not empty.
func FileExists(exec ssh.Executor, path string) Probe {
	return ProbeFunc(func(ctx context.Context) error {
		if _, err := exec.Execute(ctx, "sudo test -s "+path); err != nil {
			return fmt.Errorf("%s not present yet", path)
		}
		return nil
	})
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
