package templater

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// TemplateSuffix marks files rendered through text/template.
const TemplateSuffix = ".j2"

const EnvVariable = "env"

const DefaultCloneDepth = 1

type Templater struct {
	// DataDir holds the repository cache and config.json.
	DataDir string
	// TemplatesDir is the templates root, laid out as {type}/{name}/...
	TemplatesDir string
	// CloneDepth limits fresh clones, 0 clones the full history.
	CloneDepth int
	Logger     zerolog.Logger
}

// New returns a Templater using the default templates root inside dataDir.
func New(dataDir string, logger zerolog.Logger) Templater {
	return Templater{
		DataDir:      dataDir,
		TemplatesDir: DefaultTemplatesDir(dataDir),
		CloneDepth:   DefaultCloneDepth,
		Logger:       logger,
	}
}

// Generate renders templateType/templateName into outdir/templateType/{name}
// and returns that directory. Files written before a render failure are kept.
func (t Templater) Generate(templateType, templateName string, vars Variables, outdir string) (string, error) {
	if err := vars.validate(); err != nil {
		return "", err
	}
	name, _ := vars.Name()

	templateDir := t.TemplateDir(templateType, templateName)
	if info, err := os.Stat(templateDir); err != nil || !info.IsDir() {
		return "", errors.Wrapf(ErrNotFound, "%s/%s in %s", templateType, templateName, t.TemplatesDir)
	}
	if resolved, err := filepath.EvalSymlinks(templateDir); err == nil {
		templateDir = resolved
	}

	outdir, err := ExpandPath(outdir)
	if err != nil {
		return "", err
	}
	target := filepath.Join(outdir, templateType, name)
	if err := os.MkdirAll(target, 0755); err != nil {
		return "", errors.Wrapf(err, "cannot create %s", target)
	}

	data := templateData(vars)
	funcs := templateFuncs(data)

	err = filepath.Walk(templateDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.Mode()&os.ModeSymlink != 0 {
			info, err = os.Stat(path)
			if err != nil {
				return errors.Wrapf(err, "cannot follow %s", path)
			}
		}

		// linked directories are not descended into
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(templateDir, path)
		if err != nil {
			return err
		}

		if info.Name() == SchemaFile {
			return nil
		}

		destPath := filepath.Join(target, rel)

		if strings.HasSuffix(info.Name(), TemplateSuffix) {
			destPath = strings.TrimSuffix(destPath, TemplateSuffix)
			t.Logger.Debug().Str("file", rel).Str("dest", destPath).Msg("rendering")

			if err := t.renderFile(path, destPath, data, funcs); err != nil {
				return &RenderError{Path: rel, Err: err}
			}
			return nil
		}

		t.Logger.Debug().Str("file", rel).Str("dest", destPath).Msg("copying")

		return copyFile(path, destPath)
	})
	if err != nil {
		return "", err
	}

	t.Logger.Info().Str("template", templateType+"/"+templateName).Str("target", target).Msg("generated")

	return target, nil
}

func templateData(vars Variables) map[string]interface{} {
	data := map[string]interface{}{}
	for key, value := range vars {
		data[key] = value
	}
	data[EnvVariable] = environ()

	return data
}

func environ() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}

	return env
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// templateFuncs extends sprig with one zero-argument function per top-level
// variable, so templates may write {{ name }} as well as {{ .name }}.
// Variables shadow sprig functions of the same name.
func templateFuncs(data map[string]interface{}) template.FuncMap {
	funcs := sprig.TxtFuncMap()
	for key, value := range data {
		if !identifierRegex.MatchString(key) {
			continue
		}
		value := value
		funcs[key] = func() interface{} { return value }
	}

	return funcs
}

func (t Templater) renderFile(sourceFile, destFile string, data map[string]interface{}, funcs template.FuncMap) error {
	sourceStat, err := os.Stat(sourceFile)
	if err != nil {
		return err
	}

	input, err := ioutil.ReadFile(sourceFile)
	if err != nil {
		return err
	}

	tpl, err := template.New(filepath.Base(sourceFile)).
		Option("missingkey=error").
		Funcs(funcs).
		Parse(string(input))
	if err != nil {
		return err
	}

	buf := bytes.NewBuffer(nil)
	if err := tpl.Execute(buf, data); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destFile), 0755); err != nil {
		return err
	}

	return ioutil.WriteFile(destFile, buf.Bytes(), sourceStat.Mode())
}

// copyFile copies bytes, mode and modification time.
func copyFile(sourceFile, destFile string) error {
	sourceStat, err := os.Stat(sourceFile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destFile), 0755); err != nil {
		return errors.Wrapf(err, "cannot create directory for %s", destFile)
	}

	in, err := os.Open(sourceFile)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, sourceStat.Mode())
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", destFile)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "cannot copy %s", sourceFile)
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(destFile, sourceStat.ModTime(), sourceStat.ModTime())
}
