package pdm

// Role is the PDM signal a pad carries.
type Role uint8

const (
	RoleClock Role = iota + 1
	RoleData
)

// FuncSelNone is written when no function-select applies ("do not use").
const FuncSelNone FuncSel = 0

type padFunc struct {
	pad Pad
	fn  FuncSel
}

// Apollo3 pads that can carry PDMCLK / PDMDATA and the function-select
// value routing them to the PDM block.
var (
	clockPads = [...]padFunc{
		{pad: 12, fn: 5},
		{pad: 37, fn: 6},
		{pad: 46, fn: 5},
	}
	dataPads = [...]padFunc{
		{pad: 11, fn: 7},
		{pad: 36, fn: 7},
		{pad: 45, fn: 5},
	}
)

// PadFuncSel returns the function-select that routes pad to the PDM
// peripheral for role. An unknown role or a pad that cannot carry the
// signal yields FuncSelNone and ErrInvalidArg.
func PadFuncSel(role Role, pad Pad) (FuncSel, error) {
	var table []padFunc
	switch role {
	case RoleClock:
		table = clockPads[:]
	case RoleData:
		table = dataPads[:]
	default:
		return FuncSelNone, ErrInvalidArg
	}
	for _, e := range table {
		if e.pad == pad {
			return e.fn, nil
		}
	}
	return FuncSelNone, ErrInvalidArg
}

func (r Role) String() string {
	switch r {
	case RoleClock:
		return "clock"
	case RoleData:
		return "data"
	default:
		return "invalid"
	}
}
