package bindgen

import (
	gotoken "go/token"
	"strconv"
	"strings"
)

var initialisms = map[string]string{
	"id": "ID", "uri": "URI", "url": "URL", "nic": "NIC", "api": "API",
	"cpu": "CPU", "gpu": "GPU", "rdma": "RDMA", "numa": "NUMA", "tcp": "TCP",
}

// words splits snake_case, SCREAMING_CASE and lowerCamel identifiers.
func words(name string) []string {
	var out []string
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		start := 0
		for i := 1; i < len(part); i++ {
			if isUpper(part[i]) && !isUpper(part[i-1]) {
				out = append(out, part[start:i])
				start = i
			}
		}
		out = append(out, part[start:])
	}
	return out
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func camel(ws []string, lowerFirst bool) string {
	var b strings.Builder
	for i, w := range ws {
		lw := strings.ToLower(w)
		switch {
		case i == 0 && lowerFirst:
			b.WriteString(lw)
		case initialisms[lw] != "":
			b.WriteString(initialisms[lw])
		default:
			b.WriteString(strings.ToUpper(lw[:1]) + lw[1:])
		}
	}
	return b.String()
}

// constName maps OPCODE_READ to OpcodeRead.
func constName(macro string) string {
	return camel(words(macro), false)
}

// typeName maps transfer_engine_t to cTransferEngine and struct names to the
// same scheme. The leading "c" keeps the alias unexported: cgo types cannot
// cross package boundaries anyway.
func typeName(c string) string {
	c = strings.TrimSuffix(c, "_t")
	return "c" + camel(words(c), false)
}

// funcName maps createTransferEngine to nativeCreateTransferEngine.
func funcName(c string) string {
	return "native" + camel(words(c), false)
}

var reservedParams = map[string]bool{"C": true, "unsafe": true, "math": true}

func paramName(c string, idx int) string {
	if c == "" {
		return "arg" + strconv.Itoa(idx)
	}
	n := camel(words(c), true)
	if gotoken.IsKeyword(n) || reservedParams[n] {
		n += "Arg"
	}
	return n
}
