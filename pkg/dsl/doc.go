// Package dsl provides the fluent builders used to declare operations and
// group them into containers.
//
// An operation is declared once and invoked many times:
//
//	users := dsl.NewApp("Users", "User management")
//	users.Route(dsl.RouteOptions{Name: "Create User"}).
//		Input(schema.Object(
//			schema.Field("name", schema.String()),
//			schema.Field("email", schema.Email()),
//		)).
//		Use(middleware.RequireContext("user_id")).
//		Handler(createUser).
//		LLM(nil)
//
//	inv, _ := users.Run("create_user")
//	res, err := inv.Handle(ctx, dsl.Invocation{Input: args})
//
// Every invocation runs the middleware chain around a terminal step that
// validates the input, calls the handler, validates the output and applies
// the success formatter. Failures anywhere in the chain are recovered once at
// its boundary and handed to the error formatter, if any.
//
// Containers also speak the function-calling protocol: Functions lists the
// operations as function definitions and HandleToolCall dispatches a call by
// its "<container>-<operation>" name.
package dsl
