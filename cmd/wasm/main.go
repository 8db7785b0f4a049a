//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"time"

	"github.com/cutsprite/cutsprite/internal/asset"
	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/engine"
)

var (
	eng     *engine.Engine
	onFrame js.Value
)

func main() {
	eng = engine.New(engine.WithTickListener(func(f *engine.Frame) {
		if onFrame.Type() != js.TypeFunction {
			return
		}
		data, err := json.Marshal(f)
		if err != nil {
			return
		}
		onFrame.Invoke(string(data))
	}))

	// Create the engine API object
	api := js.Global().Get("Object").New()

	// --- Pointer and keyboard ---
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("contextClick", js.FuncOf(contextClick))
	api.Set("cursor", js.FuncOf(cursor))
	api.Set("keyDown", js.FuncOf(keyDown))
	api.Set("setTextFocus", js.FuncOf(setTextFocus))

	// --- Slices and groups ---
	api.Set("duplicateSlice", js.FuncOf(duplicateSlice))
	api.Set("deleteSlice", js.FuncOf(deleteSlice))
	api.Set("clearAll", js.FuncOf(clearAll))
	api.Set("createGroup", js.FuncOf(createGroup))
	api.Set("deleteGroup", js.FuncOf(deleteGroup))
	api.Set("renameGroup", js.FuncOf(renameGroup))
	api.Set("setCurrentGroup", js.FuncOf(setCurrentGroup))

	// --- Playback ---
	api.Set("play", js.FuncOf(play))
	api.Set("pause", js.FuncOf(pause))
	api.Set("stop", js.FuncOf(stop))
	api.Set("setFPS", js.FuncOf(setFPS))
	api.Set("onFrame", js.FuncOf(setFrameListener))

	// --- Files and image ---
	api.Set("setImage", js.FuncOf(setImage))
	api.Set("loadProject", js.FuncOf(loadProject))
	api.Set("loadSample", js.FuncOf(loadSample))
	api.Set("saveProject", js.FuncOf(saveProject))
	api.Set("importGroups", js.FuncOf(importGroups))
	api.Set("exportGroups", js.FuncOf(exportGroups))

	// --- Queries ---
	api.Set("render", js.FuncOf(render))
	api.Set("getFrame", js.FuncOf(getFrame))

	// Register on global scope
	js.Global().Set("cutspriteEngine", api)

	// Signal that WASM is ready
	js.Global().Set("cutspriteWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

func point(args []js.Value) (float64, float64, bool) {
	if len(args) < 2 {
		return 0, 0, false
	}
	return args[0].Float(), args[1].Float(), true
}

// --- Pointer and keyboard ---

func pointerDown(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return missing("coordinates")
	}
	return js.ValueOf(eng.PointerDown(x, y).String())
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return missing("coordinates")
	}
	return js.ValueOf(eng.PointerMove(x, y))
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return missing("coordinates")
	}
	s, created := eng.PointerUp(x, y)
	if !created {
		return js.Null()
	}
	return js.ValueOf(s.ID)
}

func contextClick(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return missing("coordinates")
	}
	menu, hit := eng.ContextClick(x, y)
	if !hit {
		return js.Null()
	}
	data, _ := json.Marshal(menu)
	return js.ValueOf(string(data))
}

func cursor(this js.Value, args []js.Value) interface{} {
	x, y, ok := point(args)
	if !ok {
		return missing("coordinates")
	}
	return js.ValueOf(eng.Cursor(x, y))
}

// keyDown(key, shift, alt, ctrl) reports whether the key was handled, so
// the page can call preventDefault.
func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("key")
	}
	var mods engine.Modifiers
	if len(args) > 3 {
		mods = engine.Modifiers{Shift: args[1].Truthy(), Alt: args[2].Truthy(), Ctrl: args[3].Truthy()}
	}
	in, found := engine.DecodeKey(args[0].String(), mods)
	if !found {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.HandleIntent(in))
}

func setTextFocus(this js.Value, args []js.Value) interface{} {
	eng.SetTextInputFocus(len(args) > 0 && args[0].Truthy())
	return nil
}

// --- Slices and groups ---

func duplicateSlice(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("slice id")
	}
	s, err := eng.DuplicateSlice(args[0].Int())
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(s.ID)
}

func deleteSlice(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("slice id")
	}
	if err := eng.DeleteSlice(args[0].Int()); err != nil {
		return fail(err)
	}
	return ok()
}

func clearAll(this js.Value, args []js.Value) interface{} {
	eng.ClearAll()
	return nil
}

func createGroup(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("group name")
	}
	color := ""
	if len(args) > 1 && args[1].Type() == js.TypeString {
		color = args[1].String()
	}
	return js.ValueOf(eng.CreateGroup(args[0].String(), color, document.CenterAnchor))
}

func deleteGroup(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("group index")
	}
	if err := eng.DeleteGroup(args[0].Int()); err != nil {
		return fail(err)
	}
	return ok()
}

func renameGroup(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("group index and name")
	}
	if err := eng.RenameGroup(args[0].Int(), args[1].String()); err != nil {
		return fail(err)
	}
	return ok()
}

func setCurrentGroup(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("group index")
	}
	if err := eng.SetCurrentGroup(args[0].Int()); err != nil {
		return fail(err)
	}
	return ok()
}

// --- Playback ---

func play(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Play())
}

func pause(this js.Value, args []js.Value) interface{} {
	eng.Pause()
	return nil
}

func stop(this js.Value, args []js.Value) interface{} {
	eng.Stop()
	return nil
}

func setFPS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("fps")
	}
	return js.ValueOf(eng.SetFPS(args[0].Int()))
}

func setFrameListener(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		onFrame = js.Undefined()
		return nil
	}
	onFrame = args[0]
	return nil
}

// --- Files and image ---

func setImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("data URL")
	}
	img, err := asset.DecodeDataURL(args[0].String())
	if err != nil {
		return fail(err)
	}
	name := ""
	if len(args) > 1 {
		name = args[1].String()
	}
	eng.SetImage(img, name)
	return ok()
}

func loadProject(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("project JSON")
	}
	if err := eng.LoadProject([]byte(args[0].String())); err != nil {
		return fail(err)
	}
	return ok()
}

func loadSample(this js.Value, args []js.Value) interface{} {
	if err := eng.LoadSample(); err != nil {
		return fail(err)
	}
	return ok()
}

func saveProject(this js.Value, args []js.Value) interface{} {
	data, err := eng.SaveProject(time.Now())
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(string(data))
}

func importGroups(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("group JSON")
	}
	if err := eng.ImportGroups([]byte(args[0].String())); err != nil {
		return fail(err)
	}
	return ok()
}

func exportGroups(this js.Value, args []js.Value) interface{} {
	data, err := eng.ExportGroups()
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(string(data))
}

// --- Queries ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func getFrame(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.Frame())
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(string(data))
}
