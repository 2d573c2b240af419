package templater_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roblaszczak/infra-cli/pkg/templater"
)

func newTestTemplater(t *testing.T, files map[string]string) templater.Templater {
	root := t.TempDir()
	writeFiles(t, root, files)

	return templater.Templater{
		TemplatesDir: root,
		Logger:       zerolog.New(zerolog.NewTestWriter(t)),
	}
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	}
}

func readFile(t *testing.T, path string) string {
	content, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestGenerate_renders_greeting(t *testing.T) {
	tplr := newTestTemplater(t, map[string]string{
		"k8s/hello/greeting.txt.j2": "Hello {{ .name }}!",
	})
	outdir := t.TempDir()

	target, err := tplr.Generate("k8s", "hello", templater.Variables{"name": "Ana"}, outdir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outdir, "k8s", "Ana"), target)
	assert.Equal(t, "Hello Ana!", readFile(t, filepath.Join(target, "greeting.txt")))
	assert.NoFileExists(t, filepath.Join(target, "greeting.txt.j2"))
}

func TestGenerate_bare_variable_names(t *testing.T) {
	tplr := newTestTemplater(t, map[string]string{
		"k8s/hello/greeting.txt.j2": "Hello {{ name }}!",
		"k8s/hello/upper.txt.j2":    "{{ name | upper }} {{ .name }} {{ replicas }}",
		"k8s/hello/list.txt.j2":     "{{ list name | join \",\" }}",
	})

	vars := templater.Variables{"name": "Ana", "replicas": 3, "not-an-identifier": "x"}
	target, err := tplr.Generate("k8s", "hello", vars, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "Hello Ana!", readFile(t, filepath.Join(target, "greeting.txt")))
	assert.Equal(t, "ANA Ana 3", readFile(t, filepath.Join(target, "upper.txt")))
	assert.Equal(t, "Ana", readFile(t, filepath.Join(target, "list.txt")))
}

func TestGenerate_undefined_bare_variable(t *testing.T) {
	tplr := newTestTemplater(t, map[string]string{
		"k8s/hello/greeting.txt.j2": "Hello {{ nickname }}!",
	})

	_, err := tplr.Generate("k8s", "hello", templater.Variables{"name": "Ana"}, t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, templater.ErrRender), err.Error())
}

func TestGenerate_missing_name(t *testing.T) {
	tplr := newTestTemplater(t, map[string]string{
		"k8s/hello/greeting.txt.j2": "Hello {{ .name }}!",
	})

	testCases := []struct {
		Name string
		Vars templater.Variables
	}{
		{Name: "absent", Vars: templater.Variables{"other": "x"}},
		{Name: "empty", Vars: templater.Variables{"name": ""}},
		{Name: "not_a_string", Vars: templater.Variables{"name": 42}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			outdir := t.TempDir()

			_, err := tplr.Generate("k8s", "hello", tc.Vars, outdir)
			require.Error(t, err)
			assert.True(t, errors.Is(err, templater.ErrValidation), err.Error())

			files, err := ioutil.ReadDir(outdir)
			require.NoError(t, err)
			assert.Empty(t, files, "nothing should be written")
		})
	}
}

func TestGenerate_template_not_found(t *testing.T) {
	tplr := newTestTemplater(t, map[string]string{
		"k8s/hello/greeting.txt.j2": "Hello {{ .name }}!",
	})
	outdir := t.TempDir()

	_, err := tplr.Generate("k8s", "missing", templater.Variables{"name": "Ana"}, outdir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, templater.ErrNotFound), err.Error())
	assert.NoDirExists(t, filepath.Join(outdir, "k8s"))
}

func TestGenerate_undefined_variable(t *testing.T) {
	tplr := newTestTemplater(t, map[string]string{
		"k8s/app/a.txt.j2":        "first {{ .name }}",
		"k8s/app/b/broken.txt.j2": "value: {{ .missing_var }}",
		"k8s/app/c.txt.j2":        "never rendered",
	})
	outdir := t.TempDir()

	_, err := tplr.Generate("k8s", "app", templater.Variables{"name": "svc"}, outdir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, templater.ErrRender), err.Error())

	var renderErr *templater.RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, filepath.Join("b", "broken.txt.j2"), renderErr.Path)
	assert.Contains(t, err.Error(), filepath.Join("b", "broken.txt.j2"))

	target := filepath.Join(outdir, "k8s", "svc")
	assert.Equal(t, "first svc", readFile(t, filepath.Join(target, "a.txt")), "earlier files are kept")
	assert.NoFileExists(t, filepath.Join(target, "b", "broken.txt"))
	assert.NoFileExists(t, filepath.Join(target, "c.txt"))
}

func TestGenerate_syntax_error(t *testing.T) {
	tplr := newTestTemplater(t, map[string]string{
		"terraform/mod/main.tf.j2": "{{ if .name }}unterminated",
	})

	_, err := tplr.Generate("terraform", "mod", templater.Variables{"name": "x"}, t.TempDir())
	require.Error(t, err)

	var renderErr *templater.RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, "main.tf.j2", renderErr.Path)
}

func TestGenerate_env_namespace(t *testing.T) {
	t.Setenv("INFRA_CLI_TEST_REGION", "eu-central-1")

	tplr := newTestTemplater(t, map[string]string{
		"terraform/mod/provider.tf.j2": `region = "{{ .env.INFRA_CLI_TEST_REGION }}"`,
		"terraform/mod/missing.tf.j2":  `{{ .env.INFRA_CLI_TEST_NOT_SET }}`,
	})
	outdir := t.TempDir()

	_, err := tplr.Generate("terraform", "mod", templater.Variables{"name": "net"}, outdir)

	// missing.tf.j2 is walked first and references an unset variable
	var renderErr *templater.RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, "missing.tf.j2", renderErr.Path)

	require.NoError(t, os.Remove(filepath.Join(tplr.TemplatesDir, "terraform", "mod", "missing.tf.j2")))

	target, err := tplr.Generate("terraform", "mod", templater.Variables{"name": "net"}, outdir)
	require.NoError(t, err)
	assert.Equal(t, `region = "eu-central-1"`, readFile(t, filepath.Join(target, "provider.tf")))
}

func TestGenerate_copies_plain_files(t *testing.T) {
	binary := string([]byte{0x00, 0xff, 0x10, '{', '{', ' ', 'x'})

	tplr := newTestTemplater(t, map[string]string{
		"k8s/raw/values.yaml":          "image: {{ not rendered }}\n",
		"k8s/raw/nested/deep/logo":     binary,
		"k8s/raw/template.json":        `{"questions": []}`,
		"k8s/raw/nested/template.json": `{"questions": []}`,
	})

	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	source := filepath.Join(tplr.TemplatesDir, "k8s", "raw", "values.yaml")
	require.NoError(t, os.Chtimes(source, mtime, mtime))

	outdir := t.TempDir()
	target, err := tplr.Generate("k8s", "raw", templater.Variables{"name": "copy"}, outdir)
	require.NoError(t, err)

	assert.Equal(t, "image: {{ not rendered }}\n", readFile(t, filepath.Join(target, "values.yaml")))
	assert.Equal(t, binary, readFile(t, filepath.Join(target, "nested", "deep", "logo")))
	assert.NoFileExists(t, filepath.Join(target, "template.json"))
	assert.NoFileExists(t, filepath.Join(target, "nested", "template.json"))

	info, err := os.Stat(filepath.Join(target, "values.yaml"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime), "modification time is preserved")
}

func TestGenerate_overwrites_existing_output(t *testing.T) {
	tplr := newTestTemplater(t, map[string]string{
		"k8s/svc/service.yaml.j2": "name: {{ .name }}\nport: {{ .port }}\n",
	})
	outdir := t.TempDir()
	writeFiles(t, outdir, map[string]string{
		"k8s/web/service.yaml": "stale content that is longer than the new one\n",
		"k8s/web/keep.txt":     "untouched",
	})

	target, err := tplr.Generate("k8s", "svc", templater.Variables{"name": "web", "port": 8080}, outdir)
	require.NoError(t, err)

	assert.Equal(t, "name: web\nport: 8080\n", readFile(t, filepath.Join(target, "service.yaml")))
	assert.Equal(t, "untouched", readFile(t, filepath.Join(target, "keep.txt")))
}

func TestGenerate_sprig_functions(t *testing.T) {
	tplr := newTestTemplater(t, map[string]string{
		"k8s/cm/configmap.yaml.j2": `name: {{ .name | upper }}
{{- range .hosts }}
host: {{ . | quote }}
{{- end }}
`,
	})

	vars := templater.Variables{"name": "cfg", "hosts": []interface{}{"a.local", "b.local"}}
	target, err := tplr.Generate("k8s", "cm", vars, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "name: CFG\nhost: \"a.local\"\nhost: \"b.local\"\n", readFile(t, filepath.Join(target, "configmap.yaml")))
}

func TestGenerate_follows_symlinks(t *testing.T) {
	tplr := newTestTemplater(t, map[string]string{
		"k8s/app/config.yaml.j2": "name: {{ .name }}\n",
		"shared/LICENSE":         "MIT\n",
		"shared/docs/index.md":   "# docs\n",
	})
	appDir := tplr.TemplateDir("k8s", "app")
	require.NoError(t, os.Symlink(filepath.Join(tplr.TemplatesDir, "shared", "LICENSE"), filepath.Join(appDir, "LICENSE")))
	require.NoError(t, os.Symlink(filepath.Join(tplr.TemplatesDir, "shared", "docs"), filepath.Join(appDir, "docs")))

	target, err := tplr.Generate("k8s", "app", templater.Variables{"name": "svc"}, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "name: svc\n", readFile(t, filepath.Join(target, "config.yaml")))
	assert.Equal(t, "MIT\n", readFile(t, filepath.Join(target, "LICENSE")))
	assert.NoDirExists(t, filepath.Join(target, "docs"), "linked directories are skipped")
}
