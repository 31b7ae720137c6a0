package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/importonly/pkg/checker"
	"github.com/Sumatoshi-tech/importonly/pkg/pyparse"
	"github.com/Sumatoshi-tech/importonly/pkg/report"
	"github.com/Sumatoshi-tech/importonly/pkg/resolve"
	"github.com/Sumatoshi-tech/importonly/pkg/rules"
	"github.com/Sumatoshi-tech/importonly/pkg/runner"
)

// Tool name constants.
const (
	ToolNameCheck = "importonly_check"
)

// Input size limits.
const (
	// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
	MaxCodeInputBytes = 1 << 20
)

// defaultFilename names the checked snippet when the caller gives none.
const defaultFilename = "snippet.py"

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrRootNotAbsolute indicates the root is not an absolute path.
	ErrRootNotAbsolute = errors.New("root must be an absolute path")
	// ErrRootNotFound indicates the root does not exist or is not a directory.
	ErrRootNotFound = errors.New("root directory does not exist")
)

// CheckInput is the input schema for the importonly_check tool.
type CheckInput struct {
	AllowedDirectImports string   `json:"allowed_direct_imports,omitempty" jsonschema:"modules whose members must be imported directly, e.g. pkg.{a,b},other.*"`
	Code                 string   `json:"code" jsonschema:"python source code to check"`
	Filename             string   `json:"filename,omitempty" jsonschema:"path of the code relative to root, used for relative imports (default: snippet.py)"`
	Modules              []string `json:"modules,omitempty" jsonschema:"dotted names of the modules that exist when no root is given"`
	Root                 string   `json:"root,omitempty" jsonschema:"absolute path of the project root used to resolve imports on disk"`
}

// CheckOutput is the payload of a successful check.
type CheckOutput struct {
	Diagnostics []report.Entry `json:"diagnostics"`
	Count       int            `json:"count"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateCodeInput checks common code input constraints.
func validateCodeInput(code string) error {
	if code == "" {
		return ErrEmptyCode
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}

// checkTool runs the checker over inline code. The parser is shared by all
// calls; rules and resolver are built per call from the input, falling back
// to the server configuration.
type checkTool struct {
	parser      *pyparse.Parser
	logger      *slog.Logger
	rules       *rules.RuleSet
	searchPaths []string
}

func (t *checkTool) handle(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input CheckInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateCodeInput(input.Code); err != nil {
		return errorResult(err)
	}

	rs, err := t.ruleSet(input.AllowedDirectImports)
	if err != nil {
		return errorResult(fmt.Errorf("allowed_direct_imports: %w", err))
	}

	resolver, path, err := t.resolverFor(input)
	if err != nil {
		return errorResult(err)
	}

	run, err := runner.New(runner.Options{
		Checker: checker.New(rs, resolver, checker.WithLogger(t.logger)),
		Parser:  t.parser,
		Workers: 1,
		Logger:  t.logger,
	})
	if err != nil {
		return errorResult(err)
	}

	diags, err := run.CheckSource(ctx, path, []byte(input.Code))
	if err != nil {
		return errorResult(fmt.Errorf("check: %w", err))
	}

	result, output, err := jsonResult(CheckOutput{Diagnostics: report.NewEntries(diags), Count: len(diags)})
	if result.IsError || len(diags) == 0 {
		return result, output, err
	}

	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = report.FormatDiagnostic(d)
	}

	result.Content = append(result.Content, &mcpsdk.TextContent{Text: strings.Join(lines, "\n")})

	return result, output, err
}

// ruleSet parses config, or returns the configured set when config is blank.
func (t *checkTool) ruleSet(config string) (*rules.RuleSet, error) {
	if strings.TrimSpace(config) == "" && t.rules != nil {
		return t.rules, nil
	}

	return rules.Parse(config)
}

// resolverFor picks an on-disk resolver when a root is given and a static
// one over input.Modules otherwise. Calls with neither resolve against the
// configured search paths when there are any. It also returns the path the
// snippet is checked under.
func (t *checkTool) resolverFor(input CheckInput) (resolve.Resolver, string, error) {
	filename := input.Filename
	if filename == "" {
		filename = defaultFilename
	}

	if input.Root == "" {
		if len(input.Modules) > 0 || len(t.searchPaths) == 0 {
			return resolve.NewStatic(input.Modules...), filepath.ToSlash(filename), nil
		}

		if !filepath.IsAbs(filename) {
			filename = filepath.Join(t.searchPaths[0], filename)
		}

		return resolve.NewFS(t.searchPaths...), filename, nil
	}

	if !filepath.IsAbs(input.Root) {
		return nil, "", fmt.Errorf("%w: %s", ErrRootNotAbsolute, input.Root)
	}

	info, err := os.Stat(input.Root)
	if err != nil || !info.IsDir() {
		return nil, "", fmt.Errorf("%w: %s", ErrRootNotFound, input.Root)
	}

	if !filepath.IsAbs(filename) {
		filename = filepath.Join(input.Root, filename)
	}

	return resolve.NewFS(input.Root), filename, nil
}
