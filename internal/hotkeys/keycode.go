package hotkeys

// KeyCode identifies a physical key by its position, independent of the
// active keyboard layout. Names follow the W3C UI Events "code" values.
type KeyCode uint8

// Key codes known to the parser. KeyUnidentified is the zero value and never
// parses; window events for keys outside the table resolve to it.
const (
	KeyUnidentified KeyCode = iota
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	KeyDigit0
	KeyDigit1
	KeyDigit2
	KeyDigit3
	KeyDigit4
	KeyDigit5
	KeyDigit6
	KeyDigit7
	KeyDigit8
	KeyDigit9
	KeyNumpad0
	KeyNumpad1
	KeyNumpad2
	KeyNumpad3
	KeyNumpad4
	KeyNumpad5
	KeyNumpad6
	KeyNumpad7
	KeyNumpad8
	KeyNumpad9
	KeyNumpadMultiply
	KeyNumpadAdd
	KeyNumpadComma
	KeyNumpadSubtract
	KeyNumpadDecimal
	KeyNumpadDivide
	KeyNumpadEnter
	KeyNumpadEqual
	KeyNumLock
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyBackspace
	KeyEnter
	KeyTab
	KeySpace
	KeyEscape
	KeyConvert
	KeyBackquote
	KeyBackslash
	KeyBracketLeft
	KeyBracketRight
	KeyComma
	KeyEqual
	KeyMinus
	KeyPeriod
	KeyQuote
	KeySemicolon
	KeySlash
	KeyAltLeft
	KeyAltRight
	KeyControlLeft
	KeyControlRight
	KeyMetaLeft
	KeyMetaRight
	KeyShiftLeft
	KeyShiftRight
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	keyCount
)

type keyInfo struct {
	name    string
	vkey    VKey
	aliases []string
}

// keyTable is indexed by KeyCode. vkey 0 means the key has no Win32
// virtual-key code and cannot be registered as a global hotkey.
var keyTable = [keyCount]keyInfo{
	KeyUnidentified:   {name: "Unidentified"},
	KeyA:              {name: "KeyA", vkey: 0x41, aliases: []string{"A"}},
	KeyB:              {name: "KeyB", vkey: 0x42, aliases: []string{"B"}},
	KeyC:              {name: "KeyC", vkey: 0x43, aliases: []string{"C"}},
	KeyD:              {name: "KeyD", vkey: 0x44, aliases: []string{"D"}},
	KeyE:              {name: "KeyE", vkey: 0x45, aliases: []string{"E"}},
	KeyF:              {name: "KeyF", vkey: 0x46, aliases: []string{"F"}},
	KeyG:              {name: "KeyG", vkey: 0x47, aliases: []string{"G"}},
	KeyH:              {name: "KeyH", vkey: 0x48, aliases: []string{"H"}},
	KeyI:              {name: "KeyI", vkey: 0x49, aliases: []string{"I"}},
	KeyJ:              {name: "KeyJ", vkey: 0x4A, aliases: []string{"J"}},
	KeyK:              {name: "KeyK", vkey: 0x4B, aliases: []string{"K"}},
	KeyL:              {name: "KeyL", vkey: 0x4C, aliases: []string{"L"}},
	KeyM:              {name: "KeyM", vkey: 0x4D, aliases: []string{"M"}},
	KeyN:              {name: "KeyN", vkey: 0x4E, aliases: []string{"N"}},
	KeyO:              {name: "KeyO", vkey: 0x4F, aliases: []string{"O"}},
	KeyP:              {name: "KeyP", vkey: 0x50, aliases: []string{"P"}},
	KeyQ:              {name: "KeyQ", vkey: 0x51, aliases: []string{"Q"}},
	KeyR:              {name: "KeyR", vkey: 0x52, aliases: []string{"R"}},
	KeyS:              {name: "KeyS", vkey: 0x53, aliases: []string{"S"}},
	KeyT:              {name: "KeyT", vkey: 0x54, aliases: []string{"T"}},
	KeyU:              {name: "KeyU", vkey: 0x55, aliases: []string{"U"}},
	KeyV:              {name: "KeyV", vkey: 0x56, aliases: []string{"V"}},
	KeyW:              {name: "KeyW", vkey: 0x57, aliases: []string{"W"}},
	KeyX:              {name: "KeyX", vkey: 0x58, aliases: []string{"X"}},
	KeyY:              {name: "KeyY", vkey: 0x59, aliases: []string{"Y"}},
	KeyZ:              {name: "KeyZ", vkey: 0x5A, aliases: []string{"Z"}},
	KeyDigit0:         {name: "Digit0", vkey: 0x30, aliases: []string{"0"}},
	KeyDigit1:         {name: "Digit1", vkey: 0x31, aliases: []string{"1"}},
	KeyDigit2:         {name: "Digit2", vkey: 0x32, aliases: []string{"2"}},
	KeyDigit3:         {name: "Digit3", vkey: 0x33, aliases: []string{"3"}},
	KeyDigit4:         {name: "Digit4", vkey: 0x34, aliases: []string{"4"}},
	KeyDigit5:         {name: "Digit5", vkey: 0x35, aliases: []string{"5"}},
	KeyDigit6:         {name: "Digit6", vkey: 0x36, aliases: []string{"6"}},
	KeyDigit7:         {name: "Digit7", vkey: 0x37, aliases: []string{"7"}},
	KeyDigit8:         {name: "Digit8", vkey: 0x38, aliases: []string{"8"}},
	KeyDigit9:         {name: "Digit9", vkey: 0x39, aliases: []string{"9"}},
	KeyNumpad0:        {name: "Numpad0", vkey: 0x60},
	KeyNumpad1:        {name: "Numpad1", vkey: 0x61},
	KeyNumpad2:        {name: "Numpad2", vkey: 0x62},
	KeyNumpad3:        {name: "Numpad3", vkey: 0x63},
	KeyNumpad4:        {name: "Numpad4", vkey: 0x64},
	KeyNumpad5:        {name: "Numpad5", vkey: 0x65},
	KeyNumpad6:        {name: "Numpad6", vkey: 0x66},
	KeyNumpad7:        {name: "Numpad7", vkey: 0x67},
	KeyNumpad8:        {name: "Numpad8", vkey: 0x68},
	KeyNumpad9:        {name: "Numpad9", vkey: 0x69},
	KeyNumpadMultiply: {name: "NumpadMultiply", vkey: 0x6A},
	KeyNumpadAdd:      {name: "NumpadAdd", vkey: 0x6B},
	KeyNumpadComma:    {name: "NumpadComma", vkey: 0x6C},
	KeyNumpadSubtract: {name: "NumpadSubtract", vkey: 0x6D, aliases: []string{"NumpadSubstract"}},
	KeyNumpadDecimal:  {name: "NumpadDecimal", vkey: 0x6E},
	KeyNumpadDivide:   {name: "NumpadDivide", vkey: 0x6F},
	KeyNumpadEnter:    {name: "NumpadEnter", vkey: 0},
	KeyNumpadEqual:    {name: "NumpadEqual", vkey: 0x92},
	KeyNumLock:        {name: "NumLock", vkey: 0x90},
	KeyArrowUp:        {name: "ArrowUp", vkey: 0x26},
	KeyArrowDown:      {name: "ArrowDown", vkey: 0x28},
	KeyArrowLeft:      {name: "ArrowLeft", vkey: 0x25},
	KeyArrowRight:     {name: "ArrowRight", vkey: 0x27},
	KeyHome:           {name: "Home", vkey: 0x24},
	KeyEnd:            {name: "End", vkey: 0x23},
	KeyPageUp:         {name: "PageUp", vkey: 0x21},
	KeyPageDown:       {name: "PageDown", vkey: 0x22},
	KeyInsert:         {name: "Insert", vkey: 0x2D},
	KeyDelete:         {name: "Delete", vkey: 0x2E},
	KeyBackspace:      {name: "Backspace", vkey: 0x08},
	KeyEnter:          {name: "Enter", vkey: 0x0D},
	KeyTab:            {name: "Tab", vkey: 0x09},
	KeySpace:          {name: "Space", vkey: 0x20},
	KeyEscape:         {name: "Escape", vkey: 0x1B},
	KeyConvert:        {name: "Convert", vkey: 0x1C},
	KeyBackquote:      {name: "Backquote", vkey: 0xC0},
	KeyBackslash:      {name: "Backslash", vkey: 0xDC},
	KeyBracketLeft:    {name: "BracketLeft", vkey: 0xDB},
	KeyBracketRight:   {name: "BracketRight", vkey: 0xDD},
	KeyComma:          {name: "Comma", vkey: 0xBC},
	KeyEqual:          {name: "Equal", vkey: 0xBB},
	KeyMinus:          {name: "Minus", vkey: 0xBD},
	KeyPeriod:         {name: "Period", vkey: 0xBE},
	KeyQuote:          {name: "Quote", vkey: 0xDE},
	KeySemicolon:      {name: "Semicolon", vkey: 0xBA},
	KeySlash:          {name: "Slash", vkey: 0xBF},
	KeyAltLeft:        {name: "AltLeft", vkey: 0xA4},
	KeyAltRight:       {name: "AltRight", vkey: 0xA5},
	KeyControlLeft:    {name: "ControlLeft", vkey: 0xA2},
	KeyControlRight:   {name: "ControlRight", vkey: 0xA3},
	KeyMetaLeft:       {name: "MetaLeft", vkey: 0x5B},
	KeyMetaRight:      {name: "MetaRight", vkey: 0x5C},
	KeyShiftLeft:      {name: "ShiftLeft", vkey: 0xA0},
	KeyShiftRight:     {name: "ShiftRight", vkey: 0xA1},
	KeyF1:             {name: "F1", vkey: 0x70},
	KeyF2:             {name: "F2", vkey: 0x71},
	KeyF3:             {name: "F3", vkey: 0x72},
	KeyF4:             {name: "F4", vkey: 0x73},
	KeyF5:             {name: "F5", vkey: 0x74},
	KeyF6:             {name: "F6", vkey: 0x75},
	KeyF7:             {name: "F7", vkey: 0x76},
	KeyF8:             {name: "F8", vkey: 0x77},
	KeyF9:             {name: "F9", vkey: 0x78},
	KeyF10:            {name: "F10", vkey: 0x79},
	KeyF11:            {name: "F11", vkey: 0x7A},
	KeyF12:            {name: "F12", vkey: 0x7B},
}

var (
	keyByName = make(map[string]KeyCode, 2*int(keyCount))
	keyByVKey = make(map[VKey]KeyCode, int(keyCount))
)

func init() {
	for code := KeyUnidentified + 1; code < keyCount; code++ {
		info := keyTable[code]
		keyByName[info.name] = code
		for _, alias := range info.aliases {
			keyByName[alias] = code
		}
		if info.vkey == 0 {
			continue
		}
		if _, taken := keyByVKey[info.vkey]; !taken {
			keyByVKey[info.vkey] = code
		}
	}
}

// LookupKey resolves a base-key token. Tokens are case-sensitive: "KeyA" and
// "A" are accepted, "a" is not.
func LookupKey(token string) (KeyCode, bool) {
	code, ok := keyByName[token]
	return code, ok
}

// String returns the canonical name used when formatting a Hotkey.
func (k KeyCode) String() string {
	if k >= keyCount {
		return keyTable[KeyUnidentified].name
	}
	return keyTable[k].name
}

// Valid reports whether k is a known, identified key.
func (k KeyCode) Valid() bool {
	return k > KeyUnidentified && k < keyCount
}

// VKey returns the Win32 virtual-key code for k, or 0 if none exists.
func (k KeyCode) VKey() VKey {
	if !k.Valid() {
		return 0
	}
	return keyTable[k].vkey
}
