package browser

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"
)

const discoveryPollInterval = 250 * time.Millisecond

var wsEndpointPattern = regexp.MustCompile(`ws://[^\s"']+`)

// firstRunMarkers hint that the server is downloading browsers on first use,
// in which case the discovery deadline is extended once. Best-effort only.
var firstRunMarkers = []string{"download", "installing", "install "}

// serverProcess wraps the externally spawned browser server. The command runs
// under `sh -c` in its own process group with combined output redirected to a
// log file, which discoverEndpoint scans for a ws:// address.
type serverProcess struct {
	cmd     *exec.Cmd
	logPath string
	done    chan struct{}
	waitErr error
}

func startServerProcess(command, logPath string) (*serverProcess, error) {
	// Subshell so redirection covers compound commands too.
	shell := fmt.Sprintf("( %s ) >> %s 2>&1", command, logPath)
	cmd := exec.Command("/bin/sh", "-c", shell)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn browser server: %w", err)
	}

	p := &serverProcess{
		cmd:     cmd,
		logPath: logPath,
		done:    make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Alive reports whether the server process is still running.
func (p *serverProcess) Alive() bool {
	if p == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Terminate signals the whole process group: SIGTERM, then SIGKILL after the
// grace period. Best-effort; it never fails teardown.
func (p *serverProcess) Terminate(grace time.Duration) {
	if p == nil || p.cmd.Process == nil {
		return
	}
	if !p.Alive() {
		return
	}

	pgid := -p.cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)

	select {
	case <-p.done:
		return
	case <-time.After(grace):
	}

	_ = syscall.Kill(pgid, syscall.SIGKILL)
	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
	}
}

// discoverEndpoint polls the server log until a ws:// address appears, the
// process dies, or the deadline passes. Log text hinting at a first-run
// browser download extends the deadline once by the original budget.
func discoverEndpoint(p *serverProcess, timeout time.Duration, tailLines int) (string, error) {
	deadline := time.Now().Add(timeout)
	extended := false

	for {
		if ep, ok := p.scanLog(); ok {
			return ep, nil
		}

		if !extended && p.setupUnderway() {
			deadline = deadline.Add(timeout)
			extended = true
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("timed out after %s waiting for a ws:// endpoint\n%s", timeout, logTail(p.logPath, tailLines))
		}

		select {
		case <-p.done:
			// One last scan: the endpoint may have been written right
			// before exit.
			if ep, ok := p.scanLog(); ok {
				return ep, nil
			}
			return "", fmt.Errorf("browser server exited before publishing an endpoint\n%s", logTail(p.logPath, tailLines))
		case <-time.After(discoveryPollInterval):
		}
	}
}

func (p *serverProcess) scanLog() (string, bool) {
	data, err := os.ReadFile(p.logPath)
	if err != nil {
		return "", false
	}
	if m := wsEndpointPattern.Find(data); m != nil {
		return string(m), true
	}
	return "", false
}

func (p *serverProcess) setupUnderway() bool {
	data, err := os.ReadFile(p.logPath)
	if err != nil {
		return false
	}
	text := strings.ToLower(string(data))
	for _, marker := range firstRunMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// logTail returns the last n lines of the server log for launch diagnostics.
func logTail(path string, n int) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("(no server log at %s: %v)", path, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return "server log tail:\n" + strings.Join(lines, "\n")
}
