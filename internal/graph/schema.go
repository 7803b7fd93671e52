package graph

// Schema is the GraphQL schema served at /graphql.
const Schema = `
	schema {
		query: Query
		mutation: Mutation
	}

	scalar Time

	type Query {
		user(username: String!): User
		users: [User!]!
		me: User!
		blogs: [Blog!]!
		getBlog(id: ID!): Blog
		blogFeed(cursor: String): BlogFeed!
	}

	type Mutation {
		postBlog(content: String!): Blog!
		updateBlog(id: ID!, content: String!): Blog!
		deleteBlog(id: ID!): Boolean!
		signUp(username: String!, email: String!, password: String!): String!
		signIn(username: String, email: String, password: String!): String!
		toggleFavorite(id: ID!): Blog!
	}

	type User {
		id: ID!
		username: String!
		email: String!
		avatar: String!
		blogs: [Blog!]!
		favorites: [Blog!]!
	}

	type Blog {
		id: ID!
		content: String!
		author: User!
		createdAt: Time!
		updatedAt: Time!
		favoriteCount: Int!
		favoritedBy: [User!]!
	}

	type BlogFeed {
		blogs: [Blog!]!
		cursor: String!
		hasNextPage: Boolean!
	}
`
