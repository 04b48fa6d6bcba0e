package cmd

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/habedi/folio/blogtest"
	"github.com/habedi/folio/pkg/clierr"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureCombinedOutput(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	if args == nil {
		// a nil slice would make cobra fall back to the test binary's own flags
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// newTestAPI starts a fake API and points folio at it with a fresh data directory,
// so the SQLite session survives between commands like it would between runs.
func newTestAPI(t *testing.T) *blogtest.Server {
	t.Helper()
	srv := blogtest.New()
	t.Cleanup(srv.Close)
	t.Setenv("FOLIO_HOME", t.TempDir())
	t.Setenv("FOLIO_CONFIG", "")
	t.Setenv("FOLIO_API_URL", srv.URL)
	return srv
}

// runCLI runs one folio command with the given standard input.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := createRootCmd()
	root.SetIn(strings.NewReader(stdin))
	return captureCombinedOutput(root, args...)
}

func loginAs(t *testing.T, username, password string) {
	t.Helper()
	out, err := runCLI(t, password+"\n", "login", "--username", username)
	require.NoError(t, err, out)
	require.Contains(t, out, "Logged in as "+username)
}

// TestCreateRootCmd checks that createRootCmd returns a root command
// with the expected use string, subcommands, and a replaced help command.
func TestCreateRootCmd(t *testing.T) {
	rootCmd := createRootCmd()
	assert.Equal(t, "folio", rootCmd.Use)

	var names []string
	for _, c := range rootCmd.Commands() {
		assert.NotEqual(t, "help", c.Use, "expected help command to be replaced")
		names = append(names, c.Name())
	}
	for _, want := range []string{"login", "register", "logout", "whoami", "session", "post", "comment", "category", "config", "version"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "api-url", "ephemeral"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}
}

func TestErrorsAreClassified(t *testing.T) {
	newTestAPI(t)

	out, err := runCLI(t, "", "post", "show", "abc")
	require.Error(t, err)
	var ce *clierr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, clierr.Validation, ce.Type)
	assert.Contains(t, out, `post ID must be a number, got "abc"`)

	out, err = runCLI(t, "", "post", "show", "42")
	require.Error(t, err)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, clierr.NotFound, ce.Type)
	assert.Contains(t, out, "Error:")
}

func TestUnreachableAPIIsANetworkError(t *testing.T) {
	srv := newTestAPI(t)
	srv.Close()

	_, err := runCLI(t, "", "post", "list")
	require.Error(t, err)
	var ce *clierr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, clierr.Network, ce.Type)
}

func TestAPIURLFlagOverridesEnvironment(t *testing.T) {
	srv := newTestAPI(t)
	srv.AddUser("alice", "secret")
	srv.AddPost("alice", "Flag wins", "body", "web")
	t.Setenv("FOLIO_API_URL", "http://127.0.0.1:1")

	out, err := runCLI(t, "", "--api-url", srv.URL+"/", "post", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Flag wins")
}

func TestInvalidConfigIsRejected(t *testing.T) {
	newTestAPI(t)
	t.Setenv("FOLIO_SESSION_BACKEND", "floppy")

	out, err := runCLI(t, "", "whoami")
	require.Error(t, err)
	var ce *clierr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, clierr.Validation, ce.Type)
	assert.Contains(t, out, "Backend: Must be one of: sqlite, redis, memory")
}

// TestExecuteFailure runs Execute in a subprocess with an unknown command and checks
// that cobra's own errors exit with the validation code.
func TestExecuteFailure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_FAILURE") == "1" {
		os.Args = []string{"folio", "no-such-command"}
		Execute(t.Context())
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecuteFailure")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_FAILURE=1")
	err := cmd.Run()
	var exitError *exec.ExitError
	require.True(t, errors.As(err, &exitError), "expected an exit error, got %v", err)
	assert.Equal(t, clierr.Validation.ExitCode(), exitError.ExitCode())
}
