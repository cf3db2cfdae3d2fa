package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmine-go/wasmine/internal/module"
	"github.com/wasmine-go/wasmine/internal/wasmtypes"
)

func TestBuildGlobalsEvaluatesConstInitializers(t *testing.T) {
	mod := &module.Module{
		Globals: []module.Global{
			{
				Type: module.GlobalType{Type: wasmtypes.ValueTypeI32, Mutable: false},
				Init: module.ConstExpr{Kind: module.ConstExprI32Const, I32Value: 7},
			},
			{
				Type: module.GlobalType{Type: wasmtypes.ValueTypeI64, Mutable: true},
				Init: module.ConstExpr{Kind: module.ConstExprI64Const, I64Value: -3},
			},
		},
	}

	c := NewCluster()
	inst, err := c.Instantiate(context.Background(), "g", mod, noopStarter)
	require.NoError(t, err)

	require.Len(t, inst.Globals, 2)
	require.Equal(t, wasmtypes.I32ToRaw(7), inst.Globals[0].Value)
	require.False(t, inst.Globals[0].Mutable)
	require.Equal(t, wasmtypes.I64ToRaw(-3), inst.Globals[1].Value)
	require.True(t, inst.Globals[1].Mutable)
}

func TestBuildGlobalsRejectsInitializerReferencingOwnModulesGlobal(t *testing.T) {
	mod := &module.Module{
		Globals: []module.Global{
			{
				Type: module.GlobalType{Type: wasmtypes.ValueTypeI32},
				Init: module.ConstExpr{Kind: module.ConstExprGlobalGet, Idx: 0},
			},
		},
	}

	c := NewCluster()
	_, err := c.Instantiate(context.Background(), "g2", mod, noopStarter)
	require.Error(t, err, "a global initializer may only reference an imported global")
}
