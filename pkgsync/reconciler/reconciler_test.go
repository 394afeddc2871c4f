package reconciler

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cm "github.com/steelcutops/pkgsync/pkgsync/commandmanager"
	"github.com/steelcutops/pkgsync/pkgsync/executor"
	"github.com/steelcutops/pkgsync/pkgsync/manifest"
	pm "github.com/steelcutops/pkgsync/pkgsync/packagemanager"
	"github.com/steelcutops/pkgsync/pkgsync/statemanager"
)

func init() {
	color.NoColor = true
}

type MockCommandManager struct {
	mock.Mock
}

func (m *MockCommandManager) Run(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	args := m.Called(config.String())
	return args.Get(0).(cm.CommandResult), args.Error(1)
}

type MockPrompter struct {
	mock.Mock
}

func (m *MockPrompter) Confirm(question string) (bool, error) {
	args := m.Called(question)
	return args.Bool(0), args.Error(1)
}

var (
	aptConfig = pm.Config{Key: "apt", ManifestPath: "apt.txt", Executable: "apt-get", InstallVerb: "install -y", UninstallVerb: "remove -y"}
	npmConfig = pm.Config{Key: "npm", ManifestPath: "npm.txt", InstallVerb: "install -g", UninstallVerb: "uninstall -g"}
)

type fixture struct {
	states     *statemanager.FileStateManager
	commands   *MockCommandManager
	reconciler *Reconciler
	out        *bytes.Buffer
}

func newFixture(t *testing.T, prompter executor.Prompter) *fixture {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "requirements")
	require.NoError(t, os.MkdirAll(root, 0o755))

	states := statemanager.NewFileStateManager(root, filepath.Join(base, "cache"), nil)
	states.LockTimeout = 300 * time.Millisecond
	commands := new(MockCommandManager)
	out := &bytes.Buffer{}

	r := New(root, states, executor.New(commands, prompter, nil), nil)
	r.Out = out
	return &fixture{states: states, commands: commands, reconciler: r, out: out}
}

func (f *fixture) writeManifest(t *testing.T, path string, lines ...string) {
	t.Helper()
	writeLines(t, f.states.ManifestPath(path), lines)
}

func (f *fixture) writeCache(t *testing.T, path string, lines ...string) {
	t.Helper()
	writeLines(t, f.states.CachePath(path), lines)
}

func (f *fixture) cached(t *testing.T, path string) []string {
	t.Helper()
	set, err := manifest.ReadFile(f.states.CachePath(path))
	require.NoError(t, err)
	return set.Sorted()
}

func writeLines(t *testing.T, path string, lines []string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBootstrapYieldsEmptyDiff(t *testing.T) {
	f := newFixture(t, new(MockPrompter))
	f.writeManifest(t, "apt.txt", "git", "vim")

	res := f.reconciler.Reconcile(context.Background(), aptConfig)

	assert.Equal(t, NoOp, res.State)
	assert.True(t, res.Bootstrapped)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, []string{"git", "vim"}, f.cached(t, "apt.txt"))
	assert.Contains(t, f.out.String(), "No cache for apt.txt")
	assert.Contains(t, f.out.String(), "nothing to do")
	f.commands.AssertNotCalled(t, "Run", mock.Anything)
}

func TestIdempotence(t *testing.T) {
	f := newFixture(t, executor.AssumeYes{})
	f.writeCache(t, "apt.txt", "git")
	f.writeManifest(t, "apt.txt", "git", "htop")
	f.commands.On("Run", "sudo apt-get install -y htop").Return(cm.CommandResult{}, nil).Once()

	first := f.reconciler.Reconcile(context.Background(), aptConfig)
	require.Equal(t, Committed, first.State)
	assert.Equal(t, []string{"git", "htop"}, f.cached(t, "apt.txt"))

	second := f.reconciler.Reconcile(context.Background(), aptConfig)
	assert.Equal(t, NoOp, second.State)
	assert.True(t, second.Changes.Empty())
	f.commands.AssertNumberOfCalls(t, "Run", 1)
}

func TestDeclineLeavesCacheStale(t *testing.T) {
	prompter := new(MockPrompter)
	prompter.On("Confirm", mock.Anything).Return(false, nil).Twice()
	f := newFixture(t, prompter)
	f.writeCache(t, "apt.txt", "git")
	f.writeManifest(t, "apt.txt", "git", "htop")

	for i := 0; i < 2; i++ {
		res := f.reconciler.Reconcile(context.Background(), aptConfig)

		assert.Equal(t, Stale, res.State)
		assert.Equal(t, 1, res.ExitCode)
		assert.Equal(t, []string{"htop"}, res.Changes.ToInstall.Sorted())
		assert.Equal(t, []string{"git"}, f.cached(t, "apt.txt"))
	}
	prompter.AssertExpectations(t)
	f.commands.AssertNotCalled(t, "Run", mock.Anything)
}

func TestPartialFailureIsolation(t *testing.T) {
	f := newFixture(t, executor.AssumeYes{})
	f.writeCache(t, "apt.txt", "git")
	f.writeManifest(t, "apt.txt", "git", "nosuchpkg")
	f.writeCache(t, "npm.txt", "yarn")
	f.writeManifest(t, "npm.txt", "yarn", "prettier")

	f.commands.On("Run", "sudo apt-get install -y nosuchpkg").Return(cm.CommandResult{ExitCode: 100}, nil).Once()
	f.commands.On("Run", "sudo npm install -g prettier").Return(cm.CommandResult{}, nil).Once()

	report := f.reconciler.Run(context.Background(), []pm.Config{aptConfig, npmConfig})

	require.Len(t, report.Results, 2)
	assert.Equal(t, Stale, report.Results[0].State)
	assert.Equal(t, Committed, report.Results[1].State)
	assert.NotZero(t, report.ExitCode())
	assert.Error(t, report.Err())
	assert.Equal(t, []string{"git"}, f.cached(t, "apt.txt"))
	assert.Equal(t, []string{"prettier", "yarn"}, f.cached(t, "npm.txt"))
	f.commands.AssertExpectations(t)
}

func TestMissingManifestIsSkipped(t *testing.T) {
	f := newFixture(t, new(MockPrompter))

	report := f.reconciler.Run(context.Background(), []pm.Config{npmConfig})

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, Skipped, res.State)
	assert.ErrorIs(t, res.Err, manifest.ErrManifestNotFound)
	assert.Equal(t, 0, report.ExitCode())
	assert.NoError(t, report.Err())

	_, err := os.Stat(f.states.CachePath("npm.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestUnsafeNameLeavesCacheStale(t *testing.T) {
	f := newFixture(t, new(MockPrompter))
	f.writeCache(t, "apt.txt", "git")
	f.writeManifest(t, "apt.txt", "git", "$(reboot)")

	res := f.reconciler.Reconcile(context.Background(), aptConfig)

	assert.Equal(t, Stale, res.State)
	assert.ErrorIs(t, res.Err, manifest.ErrUnsafePackageName)
	assert.Equal(t, []string{"git"}, f.cached(t, "apt.txt"))
}

func TestSharedManifestUsesOneCache(t *testing.T) {
	f := newFixture(t, executor.AssumeYes{})
	ruby := pm.Config{Key: "ruby", ManifestPath: "ruby/ruby-packages.txt", Executable: "gem"}
	gem := pm.Config{Key: "gem", ManifestPath: "ruby/ruby-packages.txt"}
	f.writeCache(t, "ruby/ruby-packages.txt", "rake")
	f.writeManifest(t, "ruby/ruby-packages.txt", "rake", "rubocop")
	f.commands.On("Run", "sudo gem install rubocop").Return(cm.CommandResult{}, nil).Once()

	report := f.reconciler.Run(context.Background(), []pm.Config{ruby, gem})

	assert.Equal(t, Committed, report.Results[0].State)
	assert.Equal(t, NoOp, report.Results[1].State)
	assert.Equal(t, 0, report.ExitCode())
	f.commands.AssertExpectations(t)
}

func TestLockedCacheIsStale(t *testing.T) {
	f := newFixture(t, new(MockPrompter))
	f.writeManifest(t, "apt.txt", "git")

	unlock, err := f.states.Lock(context.Background(), "apt.txt")
	require.NoError(t, err)
	defer unlock()

	other := statemanager.NewFileStateManager(f.states.Root, f.states.CacheDir, nil)
	other.LockTimeout = 200 * time.Millisecond
	f.reconciler.States = other

	res := f.reconciler.Reconcile(context.Background(), aptConfig)
	assert.Equal(t, Stale, res.State)
	assert.ErrorIs(t, res.Err, statemanager.ErrLocked)
	assert.Equal(t, 1, res.ExitCode)
}

func TestRunStopsStartingManagersAfterCancel(t *testing.T) {
	f := newFixture(t, new(MockPrompter))
	f.writeManifest(t, "apt.txt", "git")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := f.reconciler.Run(ctx, []pm.Config{aptConfig})
	require.Len(t, report.Results, 1)
	assert.Equal(t, Stale, report.Results[0].State)
	assert.ErrorIs(t, report.Results[0].Err, context.Canceled)
}

// editingExecutor appends to the manifest while the run is in progress, the
// way an editor open on the same file would.
type editingExecutor struct {
	path     string
	addition string
}

func (e editingExecutor) Execute(ctx context.Context, cfg pm.Config, changes manifest.Changes) executor.Outcome {
	f, err := os.OpenFile(e.path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return executor.Outcome{Status: executor.Failed, ExitCode: 1, Err: err}
	}
	defer f.Close()
	if _, err := f.WriteString(e.addition + "\n"); err != nil {
		return executor.Outcome{Status: executor.Failed, ExitCode: 1, Err: err}
	}
	return executor.Outcome{Status: executor.Succeeded}
}

func TestEditDuringExecutionIsNotCommitted(t *testing.T) {
	f := newFixture(t, executor.AssumeYes{})
	f.writeCache(t, "apt.txt", "git")
	f.writeManifest(t, "apt.txt", "git", "htop")
	f.reconciler.Executor = editingExecutor{path: f.states.ManifestPath("apt.txt"), addition: "nmap"}

	res := f.reconciler.Reconcile(context.Background(), aptConfig)
	require.Equal(t, Committed, res.State)
	assert.Equal(t, []string{"htop"}, res.Changes.ToInstall.Sorted())
	assert.Equal(t, []string{"git", "htop"}, f.cached(t, "apt.txt"))

	f.reconciler.Executor = executor.New(f.commands, executor.AssumeYes{}, nil)
	f.commands.On("Run", "sudo apt-get install -y nmap").Return(cm.CommandResult{}, nil).Once()

	next := f.reconciler.Reconcile(context.Background(), aptConfig)
	assert.Equal(t, Committed, next.State)
	assert.Equal(t, []string{"nmap"}, next.Changes.ToInstall.Sorted())
	f.commands.AssertExpectations(t)
}
