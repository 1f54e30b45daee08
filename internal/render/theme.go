package render

// Theme holds colors for callgraph rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	// Edge colors by call kind.
	EdgeCall     string // CALL into plugin code
	EdgeNative   string // SYSREQ.C / folded native call
	EdgeIndirect string // SYSREQ.pri, target unknown

	// Node accents.
	PublicBorder string // public functions (entry points)
	StubFill     string // unnamed stock functions (sub_xxx)
	NativeText   string // native and unresolved targets

	// Cluster styling.
	ClusterBorder string
	ClusterLabel  string
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeCall:     "#424242", // dark gray
	EdgeNative:   "#0B3D91", // NASA blue
	EdgeIndirect: "#FC3D21", // NASA red

	PublicBorder: "#0B3D91",
	StubFill:     "#ECEFF1", // blue-gray 50
	NativeText:   "#00695C", // teal

	ClusterBorder: "#BDBDBD",
	ClusterLabel:  "#757575",
}
