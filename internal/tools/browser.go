package tools

import (
	"context"

	"github.com/sandboxkernel/kernel/internal/browserclient"
)

type browserView struct{ browser *browserclient.Client }

type BrowserViewParams struct{}

func NewBrowserView(b *browserclient.Client) *browserView { return &browserView{b} }
func (t *browserView) Name() string                       { return "browser_view" }
func (t *browserView) Description() string                { return "View the current browser page content." }
func (t *browserView) NewParams() any                      { return &BrowserViewParams{} }
func (t *browserView) Call(ctx context.Context, _ any) (string, error) {
	res, err := t.browser.ViewPage(ctx)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type browserNavigate struct{ browser *browserclient.Client }

type BrowserNavigateParams struct {
	URL string `json:"url" jsonschema:"required,description=URL to navigate to"`
}

func NewBrowserNavigate(b *browserclient.Client) *browserNavigate { return &browserNavigate{b} }
func (t *browserNavigate) Name() string                           { return "browser_navigate" }
func (t *browserNavigate) Description() string                    { return "Navigate the browser to a URL." }
func (t *browserNavigate) NewParams() any                         { return &BrowserNavigateParams{} }
func (t *browserNavigate) Call(ctx context.Context, params any) (string, error) {
	p := params.(*BrowserNavigateParams)
	res, err := t.browser.Navigate(ctx, p.URL)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type browserRestart struct{ browser *browserclient.Client }

type BrowserRestartParams struct {
	URL string `json:"url" jsonschema:"required,description=URL to navigate to after restart"`
}

func NewBrowserRestart(b *browserclient.Client) *browserRestart { return &browserRestart{b} }
func (t *browserRestart) Name() string                          { return "browser_restart" }
func (t *browserRestart) Description() string                   { return "Restart the browser and navigate to a URL." }
func (t *browserRestart) NewParams() any                        { return &BrowserRestartParams{} }
func (t *browserRestart) Call(ctx context.Context, params any) (string, error) {
	p := params.(*BrowserRestartParams)
	res, err := t.browser.Restart(ctx, p.URL)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type browserClick struct{ browser *browserclient.Client }

type BrowserClickParams struct {
	Index       *int     `json:"index,omitempty" jsonschema:"description=Index of the element to click"`
	CoordinateX *float64 `json:"coordinate_x,omitempty" jsonschema:"description=X coordinate to click"`
	CoordinateY *float64 `json:"coordinate_y,omitempty" jsonschema:"description=Y coordinate to click"`
}

func NewBrowserClick(b *browserclient.Client) *browserClick { return &browserClick{b} }
func (t *browserClick) Name() string                        { return "browser_click" }
func (t *browserClick) Description() string                 { return "Click an element identified by index or coordinates." }
func (t *browserClick) NewParams() any                      { return &BrowserClickParams{} }
func (t *browserClick) Call(ctx context.Context, params any) (string, error) {
	p := params.(*BrowserClickParams)
	res, err := t.browser.Click(ctx, p.Index, p.CoordinateX, p.CoordinateY)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type browserInput struct{ browser *browserclient.Client }

type BrowserInputParams struct {
	Text        string   `json:"text" jsonschema:"required,description=Text to input"`
	PressEnter  bool     `json:"press_enter" jsonschema:"required,description=Whether to press Enter after input"`
	Index       *int     `json:"index,omitempty" jsonschema:"description=Index of the element to type into"`
	CoordinateX *float64 `json:"coordinate_x,omitempty" jsonschema:"description=X coordinate of the element"`
	CoordinateY *float64 `json:"coordinate_y,omitempty" jsonschema:"description=Y coordinate of the element"`
}

func NewBrowserInput(b *browserclient.Client) *browserInput { return &browserInput{b} }
func (t *browserInput) Name() string                        { return "browser_input" }
func (t *browserInput) Description() string                 { return "Type text into an element identified by index or coordinates." }
func (t *browserInput) NewParams() any                      { return &BrowserInputParams{} }
func (t *browserInput) Call(ctx context.Context, params any) (string, error) {
	p := params.(*BrowserInputParams)
	res, err := t.browser.Input(ctx, p.Text, p.PressEnter, p.Index, p.CoordinateX, p.CoordinateY)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type browserMoveMouse struct{ browser *browserclient.Client }

type BrowserMoveMouseParams struct {
	CoordinateX float64 `json:"coordinate_x" jsonschema:"required,description=X coordinate to move to"`
	CoordinateY float64 `json:"coordinate_y" jsonschema:"required,description=Y coordinate to move to"`
}

func NewBrowserMoveMouse(b *browserclient.Client) *browserMoveMouse { return &browserMoveMouse{b} }
func (t *browserMoveMouse) Name() string                            { return "browser_move_mouse" }
func (t *browserMoveMouse) Description() string                    { return "Move the mouse pointer to coordinates." }
func (t *browserMoveMouse) NewParams() any                          { return &BrowserMoveMouseParams{} }
func (t *browserMoveMouse) Call(ctx context.Context, params any) (string, error) {
	p := params.(*BrowserMoveMouseParams)
	res, err := t.browser.MoveMouse(ctx, p.CoordinateX, p.CoordinateY)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type browserPressKey struct{ browser *browserclient.Client }

type BrowserPressKeyParams struct {
	Key string `json:"key" jsonschema:"required,description=Key or key combination to press"`
}

func NewBrowserPressKey(b *browserclient.Client) *browserPressKey { return &browserPressKey{b} }
func (t *browserPressKey) Name() string                           { return "browser_press_key" }
func (t *browserPressKey) Description() string                    { return "Simulate a key press." }
func (t *browserPressKey) NewParams() any                         { return &BrowserPressKeyParams{} }
func (t *browserPressKey) Call(ctx context.Context, params any) (string, error) {
	p := params.(*BrowserPressKeyParams)
	res, err := t.browser.PressKey(ctx, p.Key)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type browserSelectOption struct{ browser *browserclient.Client }

type BrowserSelectOptionParams struct {
	Index  int `json:"index" jsonschema:"required,description=Index of the select element"`
	Option int `json:"option" jsonschema:"required,description=Index of the option to select"`
}

func NewBrowserSelectOption(b *browserclient.Client) *browserSelectOption {
	return &browserSelectOption{b}
}
func (t *browserSelectOption) Name() string        { return "browser_select_option" }
func (t *browserSelectOption) Description() string { return "Select a dropdown option." }
func (t *browserSelectOption) NewParams() any       { return &BrowserSelectOptionParams{} }
func (t *browserSelectOption) Call(ctx context.Context, params any) (string, error) {
	p := params.(*BrowserSelectOptionParams)
	res, err := t.browser.SelectOption(ctx, p.Index, p.Option)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type browserScrollUp struct{ browser *browserclient.Client }

type BrowserScrollUpParams struct {
	ToTop *bool `json:"to_top,omitempty" jsonschema:"description=Whether to scroll all the way to the top"`
}

func NewBrowserScrollUp(b *browserclient.Client) *browserScrollUp { return &browserScrollUp{b} }
func (t *browserScrollUp) Name() string                           { return "browser_scroll_up" }
func (t *browserScrollUp) Description() string                    { return "Scroll the page up." }
func (t *browserScrollUp) NewParams() any                         { return &BrowserScrollUpParams{} }
func (t *browserScrollUp) Call(ctx context.Context, params any) (string, error) {
	p := params.(*BrowserScrollUpParams)
	res, err := t.browser.ScrollUp(ctx, p.ToTop)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type browserScrollDown struct{ browser *browserclient.Client }

type BrowserScrollDownParams struct {
	ToBottom *bool `json:"to_bottom,omitempty" jsonschema:"description=Whether to scroll all the way to the bottom"`
}

func NewBrowserScrollDown(b *browserclient.Client) *browserScrollDown { return &browserScrollDown{b} }
func (t *browserScrollDown) Name() string                            { return "browser_scroll_down" }
func (t *browserScrollDown) Description() string                     { return "Scroll the page down." }
func (t *browserScrollDown) NewParams() any                          { return &BrowserScrollDownParams{} }
func (t *browserScrollDown) Call(ctx context.Context, params any) (string, error) {
	p := params.(*BrowserScrollDownParams)
	res, err := t.browser.ScrollDown(ctx, p.ToBottom)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type browserConsoleExec struct{ browser *browserclient.Client }

type BrowserConsoleExecParams struct {
	Javascript string `json:"javascript" jsonschema:"required,description=JavaScript code to execute"`
}

func NewBrowserConsoleExec(b *browserclient.Client) *browserConsoleExec { return &browserConsoleExec{b} }
func (t *browserConsoleExec) Name() string                              { return "browser_console_exec" }
func (t *browserConsoleExec) Description() string                       { return "Execute JavaScript in the page console." }
func (t *browserConsoleExec) NewParams() any                            { return &BrowserConsoleExecParams{} }
func (t *browserConsoleExec) Call(ctx context.Context, params any) (string, error) {
	p := params.(*BrowserConsoleExecParams)
	res, err := t.browser.ConsoleExec(ctx, p.Javascript)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

type browserConsoleView struct{ browser *browserclient.Client }

type BrowserConsoleViewParams struct {
	MaxLines *int `json:"max_lines,omitempty" jsonschema:"description=Maximum number of console lines to return"`
}

func NewBrowserConsoleView(b *browserclient.Client) *browserConsoleView { return &browserConsoleView{b} }
func (t *browserConsoleView) Name() string                              { return "browser_console_view" }
func (t *browserConsoleView) Description() string                       { return "View recent browser console output." }
func (t *browserConsoleView) NewParams() any                            { return &BrowserConsoleViewParams{} }
func (t *browserConsoleView) Call(ctx context.Context, params any) (string, error) {
	p := params.(*BrowserConsoleViewParams)
	res, err := t.browser.ConsoleView(ctx, p.MaxLines)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}
