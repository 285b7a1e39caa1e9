package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runShell(t *testing.T, input string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	sh := New(strings.NewReader(input), &stdout, &stderr)
	code := sh.Run()
	return code, stdout.String(), stderr.String()
}

func TestShell_EchoThenExit(t *testing.T) {
	code, out, _ := runShell(t, "echo hello world\nexit\n")
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello world\n", strings.SplitN(out, "\n", 2)[0]+"\n")
}

func TestShell_ExitWithCode(t *testing.T) {
	code, _, _ := runShell(t, "exit 7\n")
	assert.Equal(t, 7, code)
}

func TestShell_EchoPipedToWc(t *testing.T) {
	code, out, _ := runShell(t, "echo 123 | wc\nexit\n")
	assert.Equal(t, 0, code)
	assert.Equal(t, "1 1 4", strings.SplitN(out, "\n", 2)[0])
}

func TestShell_AssignmentExpansionAcrossVars(t *testing.T) {
	code, out, _ := runShell(t, "x=ex y=it echo $x$y\nexit\n")
	assert.Equal(t, 0, code)
	assert.Equal(t, "exit", strings.SplitN(out, "\n", 2)[0])
}

func TestShell_DoublePipeIsParseError(t *testing.T) {
	code, _, errOut := runShell(t, "echo hi | | wc\nexit\n")
	assert.Equal(t, 0, code)
	assert.Contains(t, errOut, "Parse error")
	assert.Contains(t, errOut, "empty pipeline segment")
}

func TestShell_EmptyAndWhitespaceLinesAreNoOps(t *testing.T) {
	code, out, errOut := runShell(t, "\n   \n\t\nexit\n")
	assert.Equal(t, 0, code)
	assert.Empty(t, out)
	assert.Empty(t, errOut)
}

func TestShell_AssignmentOnlyLineUpdatesEnvironmentNoCommand(t *testing.T) {
	code, out, errOut := runShell(t, "x=1\necho $x\nexit\n")
	assert.Equal(t, 0, code)
	assert.Empty(t, errOut)
	assert.Equal(t, "1", strings.SplitN(out, "\n", 2)[0])
}

func TestShell_EndOfInputReturnsZero(t *testing.T) {
	code, _, _ := runShell(t, "echo only line")
	assert.Equal(t, 0, code)
}

func TestShell_CatThenWcMatchesWcAlone(t *testing.T) {
	_, outPiped, _ := runShell(t, "echo data | cat | wc\nexit\n")
	_, outDirect, _ := runShell(t, "echo data | wc\nexit\n")
	require.Equal(t, strings.SplitN(outDirect, "\n", 2)[0], strings.SplitN(outPiped, "\n", 2)[0])
}
