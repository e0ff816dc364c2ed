package utils

import (
	"bytes"
	"encoding/json"
)

// PrettyJson serializa o valor com indentação para impressão de relatórios.
// Aceita também um []byte já serializado, que é apenas re-indentado.
func PrettyJson(in any) string {
	raw, ok := in.([]byte)
	if !ok {
		buf, err := json.MarshalIndent(in, "", "\t")
		if err != nil {
			return err.Error()
		}
		return string(buf)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "\t"); err != nil {
		return string(raw)
	}
	return out.String()
}
