package visual

import "fmt"

// Stylesheet is the presentation of the rendered diagrams. Hosts embedding the container markup should include it.
var Stylesheet = fmt.Sprintf(`.%[1]s {
	display: flex;
	justify-content: center;
	background: none;
}

.%[1]s svg {
	max-width: 100%%;
	height: auto;
}
`, DiagramClass)
