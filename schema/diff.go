package schema

import (
	"fmt"

	"github.com/epiframe/epiframe/document"
)

// FieldChange records a value change at one field path between two
// instances of the same schema.
type FieldChange struct {
	Field string         `json:"field"`
	Old   document.Value `json:"old"`
	New   document.Value `json:"new"`
}

// ReadOnlyDiff reports changes to read-only fields between two
// instances of the same schema. Read-only fields are structurally
// excluded from update schemas, so a non-empty diff means b was built
// from a full replacement document rather than an incremental update -
// which is exactly the situation worth flagging to a caller comparing
// two configurations of one model.
func ReadOnlyDiff(a, b *Instance) ([]FieldChange, error) {
	if a.schema != b.schema {
		return nil, fmt.Errorf("read-only diff requires instances of the same schema: %q vs %q",
			a.schema.name, b.schema.name)
	}
	var changes []FieldChange
	diffReadOnly(a.schema.fields, a.doc, b.doc, "", false, &changes)
	return changes, nil
}

// diffReadOnly walks the declarations, comparing values at read-only
// paths. A read-only mark on a struct covers its whole subtree.
func diffReadOnly(decls []fieldDecl, a, b document.Object, prefix string, inherited bool, changes *[]FieldChange) {
	for i := range decls {
		decl := &decls[i]
		path := joinPath(prefix, decl.name)
		readOnly := inherited || decl.readOnly

		av, aok := a[decl.name]
		bv, bok := b[decl.name]

		if decl.kind == KindStruct {
			ao, _ := av.(document.Object)
			bo, _ := bv.(document.Object)
			if ao == nil {
				ao = document.Object{}
			}
			if bo == nil {
				bo = document.Object{}
			}
			diffReadOnly(decl.fields, ao, bo, path, readOnly, changes)
			continue
		}

		if !readOnly {
			continue
		}
		if aok && bok && document.Equal(av, bv) {
			continue
		}
		if !aok && !bok {
			continue
		}
		change := FieldChange{Field: path}
		if aok {
			change.Old = document.Clone(av)
		}
		if bok {
			change.New = document.Clone(bv)
		}
		*changes = append(*changes, change)
	}
}
