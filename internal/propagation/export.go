package propagation

import (
	"github.com/avrek/propsim/internal/confnode"
)

// ExportSettings is one export block: a file to write and the ordered list
// of variables it requests.
type ExportSettings struct {
	File                string
	Variables           []Variable
	Header              bool
	EpochsInFirstColumn bool
}

// DecodeExports reads the export blocks of a configuration. A missing
// export key yields an empty list.
func DecodeExports(root confnode.Map) ([]ExportSettings, error) {
	raw, ok := root.Get(KeyExport)
	if !ok {
		return nil, nil
	}
	at := confnode.Path(KeyExport)
	list, err := confnode.AsList(raw, at)
	if err != nil {
		return nil, err
	}
	out := make([]ExportSettings, 0, len(list))
	for i, elem := range list {
		entryAt := at.Child(indexKey(i))
		obj, err := confnode.AsMap(elem, entryAt)
		if err != nil {
			return nil, err
		}
		spec := ExportSettings{Header: true, EpochsInFirstColumn: true}
		spec.File, err = confnode.GetAs[string](obj, KeyExportFile)
		if err != nil {
			return nil, prefixPath(err, entryAt)
		}
		spec.Header, err = confnode.OptAs(obj, true, KeyExportHeader)
		if err != nil {
			return nil, prefixPath(err, entryAt)
		}
		spec.EpochsInFirstColumn, err = confnode.OptAs(obj, true, KeyExportEpochs)
		if err != nil {
			return nil, prefixPath(err, entryAt)
		}
		rawVars, ok := obj.Get(KeyExportVariables)
		if !ok {
			return nil, &confnode.MissingKeyError{Path: entryAt.Child(KeyExportVariables)}
		}
		varList, err := confnode.AsList(rawVars, entryAt.Child(KeyExportVariables))
		if err != nil {
			return nil, err
		}
		for j, rawVar := range varList {
			v, err := decodeVariable(rawVar, entryAt.Child(KeyExportVariables, indexKey(j)))
			if err != nil {
				return nil, err
			}
			spec.Variables = append(spec.Variables, v)
		}
		out = append(out, spec)
	}
	return out, nil
}

// EncodeExports emits export blocks back into wire form.
func EncodeExports(specs []ExportSettings) []any {
	out := make([]any, 0, len(specs))
	for _, spec := range specs {
		variables := make([]any, 0, len(spec.Variables))
		for _, v := range spec.Variables {
			variables = append(variables, encodeVariable(v))
		}
		obj := map[string]any{
			KeyExportFile:      spec.File,
			KeyExportVariables: variables,
		}
		if !spec.Header {
			obj[KeyExportHeader] = false
		}
		if !spec.EpochsInFirstColumn {
			obj[KeyExportEpochs] = false
		}
		out = append(out, obj)
	}
	return out
}
