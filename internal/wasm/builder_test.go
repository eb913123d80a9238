package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt-go/api"
)

func TestModuleBuilder_AddFunctionAndExport(t *testing.T) {
	b := NewModuleBuilder()
	typeIdx, b := b.AddType(&FunctionType{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI32}})
	fnIdx, b := b.AddFunction(&Function{
		TypeIndex: typeIdx,
		Body:      []Instruction{{Op: OpEnd}},
		DebugName: "double",
	})
	b = b.AddExportFunc("double", fnIdx)

	m, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, Index(0), fnIdx)
	require.Equal(t, Index(0), m.Exports["double"].Index)
	require.Equal(t, ExportKind(api.ExternTypeFunc), m.Exports["double"].Kind)
}

func TestModuleBuilder_ImportsPrecedeDefinedInIndexSpace(t *testing.T) {
	b := NewModuleBuilder()
	typeIdx, b := b.AddType(&FunctionType{})
	importIdx, b := b.AddImportFunc("env", "log", typeIdx)
	definedIdx, b := b.AddFunction(&Function{TypeIndex: typeIdx, Body: []Instruction{{Op: OpEnd}}})

	m, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, Index(0), importIdx)
	require.Equal(t, Index(1), definedIdx)
	require.Equal(t, uint32(2), m.FunctionCount())
}

func TestModuleBuilder_DuplicateExportFails(t *testing.T) {
	b := NewModuleBuilder()
	typeIdx, b := b.AddType(&FunctionType{})
	fnIdx, b := b.AddFunction(&Function{TypeIndex: typeIdx, Body: []Instruction{{Op: OpEnd}}})
	b = b.AddExportFunc("f", fnIdx).AddExportFunc("f", fnIdx)

	_, err := b.Build()
	require.Error(t, err)
}

func TestModuleBuilder_OutOfRangeTypeIndexFails(t *testing.T) {
	b := NewModuleBuilder()
	_, b = b.AddFunction(&Function{TypeIndex: 5, Body: []Instruction{{Op: OpEnd}}})

	_, err := b.Build()
	require.Error(t, err)
}

func TestModuleBuilder_BuildFinalizesBodies(t *testing.T) {
	b := NewModuleBuilder()
	typeIdx, b := b.AddType(&FunctionType{})
	_, b = b.AddFunction(&Function{
		TypeIndex: typeIdx,
		Body:      []Instruction{{Op: OpBlock}, {Op: OpEnd}, {Op: OpEnd}},
	})

	m, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, 1, m.Functions[0].Body[0].ContinuationPC)
}

func TestModuleBuilder_StartFunction(t *testing.T) {
	b := NewModuleBuilder()
	typeIdx, b := b.AddType(&FunctionType{})
	fnIdx, b := b.AddFunction(&Function{TypeIndex: typeIdx, Body: []Instruction{{Op: OpEnd}}})
	b = b.SetStart(fnIdx)

	m, err := b.Build()
	require.NoError(t, err)
	require.NotNil(t, m.StartFunc)
	require.Equal(t, fnIdx, *m.StartFunc)
}
