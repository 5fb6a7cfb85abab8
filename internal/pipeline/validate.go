package pipeline

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/deffeddef/invoice-extractor-app/internal/common"
	"github.com/deffeddef/invoice-extractor-app/internal/entity"
	"github.com/deffeddef/invoice-extractor-app/internal/llm"
)

const schemaURL = "invoice.json"

// Validator checks candidate records against the invoice schema and decodes them.
type Validator struct {
	schema  *jsonschema.Schema
	lenient bool
	logger  *slog.Logger
}

// NewValidator compiles the invoice schema. With lenient set, a record that
// fails strict validation gets one Repair pass before it is rejected.
func NewValidator(lenient bool, logger *slog.Logger) (*Validator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b, err := json.Marshal(llm.BuildInvoiceJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema, lenient: lenient, logger: logger}, nil
}

// Validate returns the decoded invoice, or an AppError carrying a
// *common.SchemaViolation with one entry per offending field.
func (v *Validator) Validate(raw json.RawMessage) (*entity.Invoice, error) {
	violation := v.check(raw)
	if !violation.HasErrors() {
		return decodeInvoice(raw)
	}
	if !v.lenient {
		return nil, common.NewSchemaViolationError(violation)
	}

	repaired, changes, err := Repair(raw)
	if err != nil || len(changes) == 0 {
		return nil, common.NewSchemaViolationError(violation)
	}
	if again := v.check(repaired); again.HasErrors() {
		v.logger.Warn("pipeline.validate.repair_insufficient", "changes", changes, "remaining", again.Error())
		return nil, common.NewSchemaViolationError(violation)
	}
	v.logger.Warn("pipeline.validate.repaired", "changes", changes)
	return decodeInvoice(repaired)
}

func (v *Validator) check(raw json.RawMessage) *common.SchemaViolation {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return (&common.SchemaViolation{}).Add("", "invalid JSON: "+err.Error(), nil)
	}
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return (&common.SchemaViolation{}).Add("", err.Error(), nil)
	}
	return flatten(verr)
}

// flatten keeps the leaf causes; inner nodes only repeat "doesn't validate with ...".
func flatten(verr *jsonschema.ValidationError) *common.SchemaViolation {
	var leaves []*jsonschema.ValidationError
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			leaves = append(leaves, e)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	sort.SliceStable(leaves, func(i, j int) bool {
		return comparePointers(leaves[i].InstanceLocation, leaves[j].InstanceLocation) < 0
	})

	out := &common.SchemaViolation{}
	seen := make(map[string]struct{}, len(leaves))
	for _, l := range leaves {
		key := l.InstanceLocation + "\x00" + l.Message
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Add(l.InstanceLocation, l.Message, nil)
	}
	return out
}

// comparePointers orders JSON pointers segment by segment, array indexes
// numerically, so /line_items/2 sorts before /line_items/10.
func comparePointers(a, b string) int {
	as, bs := strings.Split(a, "/"), strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			return cmp.Compare(ai, bi)
		}
		return strings.Compare(as[i], bs[i])
	}
	return cmp.Compare(len(as), len(bs))
}

func decodeInvoice(raw json.RawMessage) (*entity.Invoice, error) {
	var inv entity.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		v := (&common.SchemaViolation{}).Add("", err.Error(), nil)
		return nil, common.NewSchemaViolationError(v)
	}
	if inv.LineItems == nil {
		inv.LineItems = []entity.LineItem{}
	}
	return &inv, nil
}
