package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateID gera um identificador curto alfanumérico, usado para rotular
// lotes de carga nos logs e nos erros.
func GenerateID() (string, error) {
	return gonanoid.Generate(idAlphabet, 6)
}
