// Package codestyle_test holds repository-wide layout and naming checks.
package codestyle_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"
)

// maxInterfaceMethods is the widest interface the repository accepts.
const maxInterfaceMethods = 5

// bannedFilenames maps grab-bag file names to the fix reviewers ask for.
var bannedFilenames = map[string]string{
	"types.go":     "move each type next to the code that uses it",
	"utils.go":     "move each function to the file that owns its domain",
	"helpers.go":   "move each function to the file that owns its domain",
	"common.go":    "move each symbol to the file that owns its concept",
	"constants.go": "move each constant to the file where it is used",
	"errors.go":    "declare sentinel errors next to the functions that return them",
}

// bannedPackages maps generic package names to the fix reviewers ask for.
var bannedPackages = map[string]string{
	"util":    "name the package after its domain (e.g. textutil)",
	"utils":   "name the package after its domain (e.g. textutil)",
	"misc":    "name the package after its domain",
	"shared":  "name the package after what it provides",
	"base":    "name the package after what it provides",
	"generic": "name the package after what it provides",
}

// blockedAttrFragments may not appear in telemetry attribute keys: profile
// text, queries and file paths are user content with unbounded cardinality.
var blockedAttrFragments = []string{
	"text",
	"token",
	"query",
	"path",
	"uri",
	"user",
	"secret",
	"password",
}

// sourceFile is a parsed non-test Go file.
type sourceFile struct {
	rel  string
	file *ast.File
}

// projectRoot walks up from the working directory to the nearest go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		_, statErr := os.Stat(filepath.Join(dir, "go.mod"))
		if statErr == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("no go.mod above the working directory")
		}

		dir = parent
	}
}

// skipDir excludes directories the go tool ignores plus fixture trees.
func skipDir(name string) bool {
	if strings.HasPrefix(name, "_") || (strings.HasPrefix(name, ".") && name != ".") {
		return true
	}

	return name == "testdata" || name == "vendor"
}

// walkDirs calls fn for every package directory candidate under root.
func walkDirs(t *testing.T, root string, fn func(path string, entry fs.DirEntry)) {
	t.Helper()

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() && path != root && skipDir(entry.Name()) {
			return filepath.SkipDir
		}

		fn(path, entry)

		return nil
	})
	require.NoError(t, err)
}

// sourceFiles parses every non-test, non-generated Go file under root.
func sourceFiles(t *testing.T, root string) []sourceFile {
	t.Helper()

	var files []sourceFile

	walkDirs(t, root, func(path string, entry fs.DirEntry) {
		if entry.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return
		}

		parsed, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ParseComments)
		require.NoError(t, err, path)

		if ast.IsGenerated(parsed) {
			return
		}

		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)

		files = append(files, sourceFile{rel: rel, file: parsed})
	})

	return files
}

// typeSpecs yields every top-level type declaration of a file.
func typeSpecs(file *ast.File) []*ast.TypeSpec {
	var specs []*ast.TypeSpec

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}

		for _, spec := range gen.Specs {
			if typeSpec, isType := spec.(*ast.TypeSpec); isType {
				specs = append(specs, typeSpec)
			}
		}
	}

	return specs
}

// stutters reports whether an exported name repeats its package name at a
// CamelCase word boundary: config.ConfigLoader stutters, config.Config and
// engine.Engineer do not.
func stutters(pkg, name string) (string, bool) {
	titled := strings.ToUpper(pkg[:1]) + pkg[1:]

	rest, found := strings.CutPrefix(name, titled)
	if !found || rest == "" {
		return "", false
	}

	first := rune(rest[0])

	return rest, unicode.IsUpper(first) || unicode.IsDigit(first)
}

func TestNoBannedFilenames(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)

	var violations []string

	walkDirs(t, root, func(path string, entry fs.DirEntry) {
		if entry.IsDir() || strings.HasSuffix(path, "_test.go") {
			return
		}

		if fix, banned := bannedFilenames[entry.Name()]; banned {
			rel, _ := filepath.Rel(root, path)
			violations = append(violations, rel+": "+fix)
		}
	})

	require.Empty(t, violations, "grab-bag file names")
}

func TestNoGrabBagPackages(t *testing.T) {
	t.Parallel()

	root := projectRoot(t)

	var violations []string

	walkDirs(t, root, func(path string, entry fs.DirEntry) {
		if !entry.IsDir() {
			return
		}

		fix, banned := bannedPackages[entry.Name()]
		if !banned {
			return
		}

		goFiles, err := filepath.Glob(filepath.Join(path, "*.go"))
		require.NoError(t, err)

		if len(goFiles) > 0 {
			rel, _ := filepath.Rel(root, path)
			violations = append(violations, rel+": "+fix)
		}
	})

	require.Empty(t, violations, "generic package names")
}

func TestNoFatInterfaces(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sourceFiles(t, projectRoot(t)) {
		for _, spec := range typeSpecs(src.file) {
			iface, ok := spec.Type.(*ast.InterfaceType)
			if !ok {
				continue
			}

			methods := 0

			for _, field := range iface.Methods.List {
				if _, isFunc := field.Type.(*ast.FuncType); isFunc {
					methods++
				}
			}

			if methods > maxInterfaceMethods {
				violations = append(violations, src.rel+": "+spec.Name.Name)
			}
		}
	}

	require.Empty(t, violations, "interfaces wider than %d methods", maxInterfaceMethods)
}

func TestNoStutteringExports(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sourceFiles(t, projectRoot(t)) {
		pkg := strings.ToLower(src.file.Name.Name)

		for _, spec := range typeSpecs(src.file) {
			if !spec.Name.IsExported() {
				continue
			}

			if rest, bad := stutters(pkg, spec.Name.Name); bad {
				violations = append(violations, src.rel+": "+spec.Name.Name+" (use "+pkg+"."+rest+")")
			}
		}
	}

	require.Empty(t, violations, "exported types repeating their package name")
}

func TestStutters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pkg, name string
		rest      string
		want      bool
	}{
		{pkg: "config", name: "ConfigLoader", rest: "Loader", want: true},
		{pkg: "names", name: "Names2", rest: "2", want: true},
		{pkg: "config", name: "Config", want: false},
		{pkg: "engine", name: "Engineer", want: false},
		{pkg: "lsp", name: "Server", want: false},
	}

	for _, tt := range tests {
		rest, got := stutters(tt.pkg, tt.name)
		require.Equal(t, tt.want, got, tt.name)

		if tt.want {
			require.Equal(t, tt.rest, rest)
		}
	}
}

// attributeKeys returns the literal keys passed to attribute.String and its
// siblings in file.
func attributeKeys(file *ast.File) []string {
	var keys []string

	ast.Inspect(file, func(node ast.Node) bool {
		call, ok := node.(*ast.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}

		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}

		pkg, ok := sel.X.(*ast.Ident)
		if !ok || pkg.Name != "attribute" {
			return true
		}

		lit, ok := call.Args[0].(*ast.BasicLit)
		if ok && lit.Kind == token.STRING {
			keys = append(keys, strings.Trim(lit.Value, "`\""))
		}

		return true
	})

	return keys
}

func TestTelemetryAttributeKeys(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sourceFiles(t, projectRoot(t)) {
		for _, key := range attributeKeys(src.file) {
			lower := strings.ToLower(key)

			for _, fragment := range blockedAttrFragments {
				if strings.Contains(lower, fragment) {
					violations = append(violations, src.rel+": "+key)
				}
			}
		}
	}

	require.Empty(t, violations, "telemetry attributes carrying user content")
}
