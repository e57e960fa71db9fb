package nodeid

// Well-known namespace-0 numeric identifiers the core reasons about
// directly: reference-type roots used to classify a reference as
// hierarchical or aggregating, and the two bootstrap type definitions
// substituted when a caller omits one. The full standard-namespace
// dataset (every other ns=0 node) is an external bootstrap concern, not
// part of this core.
var (
	IdReferences              = NewNumeric(0, 31)
	IdHierarchicalReferences  = NewNumeric(0, 33)
	IdNonHierarchicalReferences = NewNumeric(0, 32)
	IdHasChild                = NewNumeric(0, 34)
	IdAggregates              = NewNumeric(0, 44)
	IdHasSubtype              = NewNumeric(0, 45)
	IdOrganizes               = NewNumeric(0, 35)
	IdHasTypeDefinition       = NewNumeric(0, 40)
	IdHasComponent            = NewNumeric(0, 47)
	IdHasProperty             = NewNumeric(0, 46)

	IdBaseObjectType       = NewNumeric(0, 58)
	IdBaseVariableType     = NewNumeric(0, 62)
	IdBaseDataVariableType = NewNumeric(0, 63)
)
