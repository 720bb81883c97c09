package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// document é a forma genérica de um documento já normalizado: números ficam como
// json.Number para que inteiros grandes não percam precisão.
type document map[string]any

func toDocument(v any) (document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("falha ao codificar documento: %w", err)
	}
	return parseDocument(raw)
}

func parseDocument(raw []byte) (document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("falha ao decodificar documento: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("documento precisa ser um objeto JSON")
	}
	return doc, nil
}

func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("falha ao codificar valor: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("falha ao decodificar valor: %w", err)
	}
	return out, nil
}

// sameValue compara dois valores normalizados pela sua codificação JSON canônica
// (encoding/json ordena as chaves de mapas).
func sameValue(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ra, rb)
}

// matches verifica as igualdades de filter contra doc. A chave InternalIDKey é
// responsabilidade de cada implementação e é ignorada aqui.
func matches(doc document, filter Filter) (bool, error) {
	for field, want := range filter {
		if field == InternalIDKey {
			continue
		}
		nv, err := normalize(want)
		if err != nil {
			return false, err
		}
		got, ok := doc[field]
		if !ok || !sameValue(got, nv) {
			return false, nil
		}
	}
	return true, nil
}

// apply executa update sobre doc, in place.
func apply(doc document, u Update) error {
	for field, v := range u.Set {
		nv, err := normalize(v)
		if err != nil {
			return err
		}
		doc[field] = nv
	}

	for field, delta := range u.Inc {
		var cur int64
		switch v := doc[field].(type) {
		case nil:
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return fmt.Errorf("campo %q não é inteiro: %w", field, err)
			}
			cur = n
		default:
			return fmt.Errorf("campo %q não é numérico", field)
		}
		doc[field] = json.Number(strconv.FormatInt(cur+delta, 10))
	}

	for field, v := range u.AddToSet {
		arr, err := asArray(doc, field)
		if err != nil {
			return err
		}
		nv, err := normalize(v)
		if err != nil {
			return err
		}
		present := false
		for _, el := range arr {
			if sameValue(el, nv) {
				present = true
				break
			}
		}
		if !present {
			arr = append(arr, nv)
		}
		doc[field] = arr
	}

	for field, v := range u.Pull {
		arr, err := asArray(doc, field)
		if err != nil {
			return err
		}
		nv, err := normalize(v)
		if err != nil {
			return err
		}
		kept := make([]any, 0, len(arr))
		for _, el := range arr {
			if !sameValue(el, nv) {
				kept = append(kept, el)
			}
		}
		doc[field] = kept
	}

	return nil
}

func asArray(doc document, field string) ([]any, error) {
	switch v := doc[field].(type) {
	case nil:
		return []any{}, nil
	case []any:
		return v, nil
	default:
		return nil, fmt.Errorf("campo %q não é uma lista", field)
	}
}

// violatesUnique indica se candidate repete, em algum campo único de coll, o valor
// de algum documento em others.
func violatesUnique(coll Collection, candidate document, others []document) bool {
	for _, field := range uniqueFields[coll] {
		want, ok := candidate[field]
		if !ok {
			continue
		}
		for _, other := range others {
			if got, ok := other[field]; ok && sameValue(got, want) {
				return true
			}
		}
	}
	return false
}
