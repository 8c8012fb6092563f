package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"greeter/internal/handlers"
)

func main() {
	lambda.Start(handlers.Hello)
}
