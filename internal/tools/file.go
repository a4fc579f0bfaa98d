package tools

import (
	"context"

	"github.com/sandboxkernel/kernel/internal/sandboxclient"
)

type fileWrite struct{ sandbox *sandboxclient.Client }

type FileWriteParams struct {
	File            string `json:"file" jsonschema:"required,description=File path"`
	Content         string `json:"content" jsonschema:"required,description=Content to write"`
	Append          bool   `json:"append,omitempty" jsonschema:"description=Whether to append content"`
	LeadingNewline  bool   `json:"leading_newline,omitempty" jsonschema:"description=Whether to add newline before content"`
	TrailingNewline bool   `json:"trailing_newline,omitempty" jsonschema:"description=Whether to add newline after content"`
	Sudo            bool   `json:"sudo,omitempty" jsonschema:"description=Whether to use sudo privileges"`
}

func NewFileWrite(sandbox *sandboxclient.Client) *fileWrite { return &fileWrite{sandbox} }
func (t *fileWrite) Name() string                          { return "file_write" }
func (t *fileWrite) Description() string                   { return "Write content to a file, creating it if necessary." }
func (t *fileWrite) NewParams() any                        { return &FileWriteParams{} }
func (t *fileWrite) Call(ctx context.Context, params any) (string, error) {
	p := params.(*FileWriteParams)
	res, err := t.sandbox.FileWrite(ctx, p.File, p.Content, p.Append, p.LeadingNewline, p.TrailingNewline, p.Sudo)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type fileRead struct{ sandbox *sandboxclient.Client }

type FileReadParams struct {
	File      string `json:"file" jsonschema:"required,description=File path"`
	StartLine *int   `json:"start_line,omitempty" jsonschema:"description=Start line number"`
	EndLine   *int   `json:"end_line,omitempty" jsonschema:"description=End line number"`
	Sudo      bool   `json:"sudo,omitempty" jsonschema:"description=Whether to use sudo privileges"`
}

func NewFileRead(sandbox *sandboxclient.Client) *fileRead { return &fileRead{sandbox} }
func (t *fileRead) Name() string                          { return "file_read" }
func (t *fileRead) Description() string                   { return "Read file content, optionally restricted to a line range." }
func (t *fileRead) NewParams() any                        { return &FileReadParams{} }
func (t *fileRead) Call(ctx context.Context, params any) (string, error) {
	p := params.(*FileReadParams)
	res, err := t.sandbox.FileRead(ctx, p.File, p.StartLine, p.EndLine, p.Sudo)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type fileExists struct{ sandbox *sandboxclient.Client }

type FileExistsParams struct {
	Path string `json:"path" jsonschema:"required,description=File path"`
}

func NewFileExists(sandbox *sandboxclient.Client) *fileExists { return &fileExists{sandbox} }
func (t *fileExists) Name() string                            { return "file_exists" }
func (t *fileExists) Description() string                     { return "Check whether a file exists." }
func (t *fileExists) NewParams() any                          { return &FileExistsParams{} }
func (t *fileExists) Call(ctx context.Context, params any) (string, error) {
	p := params.(*FileExistsParams)
	res, err := t.sandbox.FileExists(ctx, p.Path)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type fileDelete struct{ sandbox *sandboxclient.Client }

type FileDeleteParams struct {
	Path string `json:"path" jsonschema:"required,description=File path"`
}

func NewFileDelete(sandbox *sandboxclient.Client) *fileDelete { return &fileDelete{sandbox} }
func (t *fileDelete) Name() string                            { return "file_delete" }
func (t *fileDelete) Description() string                     { return "Delete a file." }
func (t *fileDelete) NewParams() any                          { return &FileDeleteParams{} }
func (t *fileDelete) Call(ctx context.Context, params any) (string, error) {
	p := params.(*FileDeleteParams)
	res, err := t.sandbox.FileDelete(ctx, p.Path)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type fileList struct{ sandbox *sandboxclient.Client }

type FileListParams struct {
	Path string `json:"path" jsonschema:"required,description=Directory path"`
}

func NewFileList(sandbox *sandboxclient.Client) *fileList { return &fileList{sandbox} }
func (t *fileList) Name() string                          { return "file_list" }
func (t *fileList) Description() string                   { return "List a directory's contents." }
func (t *fileList) NewParams() any                        { return &FileListParams{} }
func (t *fileList) Call(ctx context.Context, params any) (string, error) {
	p := params.(*FileListParams)
	res, err := t.sandbox.FileList(ctx, p.Path)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type fileReplace struct{ sandbox *sandboxclient.Client }

type FileReplaceParams struct {
	File   string `json:"file" jsonschema:"required,description=File path"`
	OldStr string `json:"old_str" jsonschema:"required,description=String to replace"`
	NewStr string `json:"new_str" jsonschema:"required,description=Replacement string"`
	Sudo   bool   `json:"sudo,omitempty" jsonschema:"description=Whether to use sudo privileges"`
}

func NewFileReplace(sandbox *sandboxclient.Client) *fileReplace { return &fileReplace{sandbox} }
func (t *fileReplace) Name() string                             { return "file_str_replace" }
func (t *fileReplace) Description() string                      { return "Replace a string within a file." }
func (t *fileReplace) NewParams() any                           { return &FileReplaceParams{} }
func (t *fileReplace) Call(ctx context.Context, params any) (string, error) {
	p := params.(*FileReplaceParams)
	res, err := t.sandbox.FileReplace(ctx, p.File, p.OldStr, p.NewStr, p.Sudo)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type fileSearch struct{ sandbox *sandboxclient.Client }

type FileSearchParams struct {
	File  string `json:"file" jsonschema:"required,description=File path"`
	Regex string `json:"regex" jsonschema:"required,description=Regular expression"`
	Sudo  bool   `json:"sudo,omitempty" jsonschema:"description=Whether to use sudo privileges"`
}

func NewFileSearch(sandbox *sandboxclient.Client) *fileSearch { return &fileSearch{sandbox} }
func (t *fileSearch) Name() string                            { return "file_find_in_content" }
func (t *fileSearch) Description() string                     { return "Search a file's content by regular expression." }
func (t *fileSearch) NewParams() any                          { return &FileSearchParams{} }
func (t *fileSearch) Call(ctx context.Context, params any) (string, error) {
	p := params.(*FileSearchParams)
	res, err := t.sandbox.FileSearch(ctx, p.File, p.Regex, p.Sudo)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type fileFind struct{ sandbox *sandboxclient.Client }

type FileFindParams struct {
	Path        string `json:"path" jsonschema:"required,description=Search directory path"`
	GlobPattern string `json:"glob_pattern" jsonschema:"required,description=Glob matching pattern"`
}

func NewFileFind(sandbox *sandboxclient.Client) *fileFind { return &fileFind{sandbox} }
func (t *fileFind) Name() string                          { return "file_find_by_name" }
func (t *fileFind) Description() string                   { return "Find files under a directory matching a glob pattern." }
func (t *fileFind) NewParams() any                        { return &FileFindParams{} }
func (t *fileFind) Call(ctx context.Context, params any) (string, error) {
	p := params.(*FileFindParams)
	res, err := t.sandbox.FileFind(ctx, p.Path, p.GlobPattern)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}
