// Package handbook loads and validates the on-disk handbook bundle described
// in SPEC_FULL.md §4.1 and §6: an agent descriptor, a set of API descriptors
// each referencing an OpenAPI document, a documentation tree, and an optional
// regression-suite tree.
package handbook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"onemcp/internal/onemcp/model"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

const (
	apisDir       = "apis"
	docsDir       = "docs"
	regressionDir = "regression-suite"
)

// manifest is the on-disk shape of apis/<slug>.yaml|json: the API descriptor
// plus its entity bindings.
type manifest struct {
	Slug     string `yaml:"slug" json:"slug"`
	Name     string `yaml:"name" json:"name"`
	Ref      string `yaml:"ref" json:"ref"`
	Entities []struct {
		Entity string   `yaml:"entity" json:"entity"`
		Tags   []string `yaml:"tags" json:"tags"`
	} `yaml:"entities" json:"entities"`
}

// Load parses and validates the handbook rooted at root, resolving every
// OpenAPI document's $ref graph. It returns a *ValidationError (use
// errors.As) listing every missing or incorrect artifact rather than failing
// on the first problem.
func Load(ctx context.Context, root string) (*model.Handbook, error) {
	problems := &problemCollector{}

	agentPath, err := findAgentDescriptor(root)
	if err != nil {
		problems.add("agent descriptor: %v", err)
	}
	var agent model.AgentDescriptor
	if agentPath != "" {
		if err := decodeFile(agentPath, &agent); err != nil {
			problems.add("agent descriptor %s: %v", agentPath, err)
		}
	}

	apisPath := filepath.Join(root, apisDir)
	info, statErr := os.Stat(apisPath)
	if statErr != nil || !info.IsDir() {
		problems.add("required directory missing: %s", apisDir)
	}

	services := make(map[string]*model.Service)
	var manifestFiles []string
	if statErr == nil && info.IsDir() {
		manifestFiles, err = listDescriptorFiles(apisPath)
		if err != nil {
			problems.add("listing %s: %v", apisDir, err)
		}
		if len(manifestFiles) == 0 {
			problems.add("no API descriptor is resolvable from %s", apisDir)
		}
	}

	for _, mf := range manifestFiles {
		svc, err := loadService(ctx, root, mf)
		if err != nil {
			problems.add("api descriptor %s: %v", mf, err)
			continue
		}
		if _, dup := services[svc.Slug]; dup {
			problems.add("duplicate service slug %q (from %s)", svc.Slug, mf)
			continue
		}
		services[svc.Slug] = svc
	}

	docsRoot := filepath.Join(root, docsDir)
	if info, err := os.Stat(docsRoot); err != nil || !info.IsDir() {
		// Optional section: its absence is not an error. DocsRoot is left
		// empty; no warning is logged or recorded on the Handbook.
		docsRoot = ""
	}

	var regression []model.RegressionCase
	regressionRoot := filepath.Join(root, regressionDir)
	if info, err := os.Stat(regressionRoot); err == nil && info.IsDir() {
		regression, err = loadRegressionSuite(regressionRoot)
		if err != nil {
			problems.add("regression suite: %v", err)
		}
	}

	if err := problems.err(); err != nil {
		return nil, err
	}

	version, err := computeVersion(root)
	if err != nil {
		return nil, fmt.Errorf("handbook: computing version: %w", err)
	}

	return model.NewHandbook(root, agent, services, docsRoot, regression, version), nil
}

// findAgentDescriptor locates the required agent.<ext> file at the handbook
// root: present, a regular file, and non-empty.
func findAgentDescriptor(root string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(root, "agent.*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s is a directory, expected a file", m)
		}
		if info.Size() == 0 {
			return "", fmt.Errorf("%s is empty", m)
		}
		return m, nil
	}
	return "", fmt.Errorf("no agent.<ext> file found at handbook root")
}

func listDescriptorFiles(dir string) ([]string, error) {
	var files []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" || ext == ".json" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func loadService(ctx context.Context, root, manifestPath string) (*model.Service, error) {
	var m manifest
	if err := decodeFile(manifestPath, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Slug == "" {
		return nil, fmt.Errorf("manifest missing required field 'slug'")
	}
	if m.Ref == "" {
		return nil, fmt.Errorf("manifest missing required field 'ref'")
	}

	specPath := filepath.Join(root, apisDir, m.Ref)
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("loading OpenAPI document %s: %w", m.Ref, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validating OpenAPI document %s: %w", m.Ref, err)
	}

	operations, err := extractOperations(m.Slug, doc)
	if err != nil {
		return nil, fmt.Errorf("extracting operations from %s: %w", m.Ref, err)
	}

	return &model.Service{
		Slug:       m.Slug,
		Name:       m.Name,
		Descriptor: toDescriptor(m),
		Operations: operations,
	}, nil
}

func toDescriptor(m manifest) model.APIDescriptor {
	bindings := make([]model.EntityBinding, 0, len(m.Entities))
	for _, e := range m.Entities {
		bindings = append(bindings, model.EntityBinding{Entity: e.Entity, Tags: e.Tags})
	}
	return model.APIDescriptor{Slug: m.Slug, Name: m.Name, Ref: m.Ref, Entities: bindings}
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Unmarshal(data, out)
	default:
		return yaml.Unmarshal(data, out)
	}
}

func loadRegressionSuite(dir string) ([]model.RegressionCase, error) {
	var cases []model.RegressionCase
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			return nil
		}
		var rc model.RegressionCase
		if err := decodeFile(path, &rc); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		cases = append(cases, rc)
		return nil
	})
	return cases, err
}

// computeVersion hashes every file path and modification time under root to
// produce a stable handbook version, used to invalidate plan cache entries
// when the handbook changes.
func computeVersion(root string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s|%d|%d\n", rel, info.Size(), info.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
