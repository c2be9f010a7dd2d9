package libpython

import (
	"fmt"
	"strings"
)

// ResourceKind classifies a packaged Python resource.
type ResourceKind string

const (
	ResourcePackageDistribution ResourceKind = "package-distribution"
)

// PythonResource is the generic descriptor used to classify resources.
type PythonResource struct {
	Kind    ResourceKind
	Package string
	Name    string
	Stdlib  bool
}

// Resource locations understood by AddCollectionContext.
const (
	LocationInMemory                 = "in-memory"
	locationFilesystemRelativePrefix = "filesystem-relative:"
)

// AddCollectionContext is the placement policy attached to a resource when it
// is added to a collection.
type AddCollectionContext struct {
	Include          bool
	Location         string
	LocationFallback string // empty means no fallback
	IncludeSource    bool

	BytecodeOptLevelZero bool
	BytecodeOptLevelOne  bool
	BytecodeOptLevelTwo  bool
}

// validateLocation accepts "in-memory" and "filesystem-relative:<prefix>".
func validateLocation(location string) error {
	if location == LocationInMemory {
		return nil
	}
	if strings.HasPrefix(location, locationFilesystemRelativePrefix) {
		return nil
	}
	return fmt.Errorf("invalid resource location %q: expected %q or %q", location, LocationInMemory, locationFilesystemRelativePrefix+"<prefix>")
}

// ResourceCollectionContext is implemented by every packaged resource type
// that can carry a placement policy.
type ResourceCollectionContext interface {
	// AddCollectionContext returns the placement policy, or nil.
	AddCollectionContext() *AddCollectionContext

	// SetAddCollectionContext replaces the placement policy.
	SetAddCollectionContext(ctx *AddCollectionContext)

	// PythonResource projects the resource to its generic descriptor.
	PythonResource() PythonResource
}

// FieldName names a field exposed through ReadableFields and WritableFields.
type FieldName string

const (
	FieldIsStdlib     FieldName = "is_stdlib"
	FieldPackage      FieldName = "package"
	FieldResourceName FieldName = "name"

	FieldAddInclude              FieldName = "add_include"
	FieldAddLocation             FieldName = "add_location"
	FieldAddLocationFallback     FieldName = "add_location_fallback"
	FieldAddSource               FieldName = "add_source"
	FieldAddBytecodeOptLevelZero FieldName = "add_bytecode_optimization_level_zero"
	FieldAddBytecodeOptLevelOne  FieldName = "add_bytecode_optimization_level_one"
	FieldAddBytecodeOptLevelTwo  FieldName = "add_bytecode_optimization_level_two"
)

// addContextFields are readable and writable whenever a policy is attached.
var addContextFields = []FieldName{
	FieldAddInclude,
	FieldAddLocation,
	FieldAddLocationFallback,
	FieldAddSource,
	FieldAddBytecodeOptLevelZero,
	FieldAddBytecodeOptLevelOne,
	FieldAddBytecodeOptLevelTwo,
}

// FieldError reports access to an unknown field or a value of the wrong type.
type FieldError struct {
	Type  string
	Field FieldName
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Type, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// PackageDistributionResource is a file from a package's distribution
// metadata directory, such as METADATA or RECORD.
type PackageDistributionResource struct {
	Package string
	Name    string
	Data    FileData

	addContext *AddCollectionContext
}

const packageDistributionType = "PythonPackageDistributionResource"

// NewPackageDistributionResource returns a resource without placement policy.
func NewPackageDistributionResource(pkg, name string, data FileData) *PackageDistributionResource {
	return &PackageDistributionResource{Package: pkg, Name: name, Data: data}
}

func (r *PackageDistributionResource) String() string {
	return fmt.Sprintf("%s<package=%s, name=%s>", packageDistributionType, r.Package, r.Name)
}

// AddCollectionContext returns the placement policy, or nil.
func (r *PackageDistributionResource) AddCollectionContext() *AddCollectionContext {
	return r.addContext
}

// SetAddCollectionContext replaces the placement policy.
func (r *PackageDistributionResource) SetAddCollectionContext(ctx *AddCollectionContext) {
	r.addContext = ctx
}

// PythonResource projects the resource to its generic descriptor.
func (r *PackageDistributionResource) PythonResource() PythonResource {
	return PythonResource{
		Kind:    ResourcePackageDistribution,
		Package: r.Package,
		Name:    r.Name,
	}
}

// ReadableFields lists the fields Field accepts.
func (r *PackageDistributionResource) ReadableFields() []FieldName {
	fields := []FieldName{FieldIsStdlib, FieldPackage, FieldResourceName}
	if r.addContext != nil {
		fields = append(fields, addContextFields...)
	}
	return fields
}

// WritableFields lists the fields SetField accepts.
func (r *PackageDistributionResource) WritableFields() []FieldName {
	if r.addContext == nil {
		return nil
	}
	return append([]FieldName{}, addContextFields...)
}

// Field returns the value of a readable field. Values are bool or string;
// add_location_fallback is nil when unset.
func (r *PackageDistributionResource) Field(name FieldName) (any, error) {
	switch name {
	case FieldIsStdlib:
		return false, nil
	case FieldPackage:
		return r.Package, nil
	case FieldResourceName:
		return r.Name, nil
	}

	if r.addContext == nil {
		return nil, r.fieldError(name, fmt.Errorf("no such field"))
	}
	return r.addContext.field(name, r.fieldError)
}

// SetField assigns a writable field.
func (r *PackageDistributionResource) SetField(name FieldName, value any) error {
	if r.addContext == nil {
		return r.fieldError(name, fmt.Errorf("field is not writable"))
	}
	return r.addContext.setField(name, value, r.fieldError)
}

func (r *PackageDistributionResource) fieldError(name FieldName, err error) error {
	return &FieldError{Type: packageDistributionType, Field: name, Err: err}
}

func (c *AddCollectionContext) field(name FieldName, fail func(FieldName, error) error) (any, error) {
	switch name {
	case FieldAddInclude:
		return c.Include, nil
	case FieldAddLocation:
		return c.Location, nil
	case FieldAddLocationFallback:
		if c.LocationFallback == "" {
			return nil, nil
		}
		return c.LocationFallback, nil
	case FieldAddSource:
		return c.IncludeSource, nil
	case FieldAddBytecodeOptLevelZero:
		return c.BytecodeOptLevelZero, nil
	case FieldAddBytecodeOptLevelOne:
		return c.BytecodeOptLevelOne, nil
	case FieldAddBytecodeOptLevelTwo:
		return c.BytecodeOptLevelTwo, nil
	default:
		return nil, fail(name, fmt.Errorf("no such field"))
	}
}

func (c *AddCollectionContext) setField(name FieldName, value any, fail func(FieldName, error) error) error {
	var target *bool
	switch name {
	case FieldAddLocation:
		s, ok := value.(string)
		if !ok {
			return fail(name, fmt.Errorf("expected string, got %T", value))
		}
		if err := validateLocation(s); err != nil {
			return fail(name, err)
		}
		c.Location = s
		return nil
	case FieldAddLocationFallback:
		if value == nil {
			c.LocationFallback = ""
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return fail(name, fmt.Errorf("expected string or nil, got %T", value))
		}
		if err := validateLocation(s); err != nil {
			return fail(name, err)
		}
		c.LocationFallback = s
		return nil
	case FieldAddInclude:
		target = &c.Include
	case FieldAddSource:
		target = &c.IncludeSource
	case FieldAddBytecodeOptLevelZero:
		target = &c.BytecodeOptLevelZero
	case FieldAddBytecodeOptLevelOne:
		target = &c.BytecodeOptLevelOne
	case FieldAddBytecodeOptLevelTwo:
		target = &c.BytecodeOptLevelTwo
	default:
		return fail(name, fmt.Errorf("no such field"))
	}

	b, ok := value.(bool)
	if !ok {
		return fail(name, fmt.Errorf("expected bool, got %T", value))
	}
	*target = b
	return nil
}
var _ ResourceCollectionContext = (*PackageDistributionResource)(nil)
